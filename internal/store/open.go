// Package store selects and opens the configured core.Store implementation.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/config"
	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/store/postgres"
	"github.com/JonMunkholm/buyerleads/internal/store/sqlite"
)

// Supported values of DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured database. For PostgreSQL, pending
// migrations run first when cfg.AutoMigrate is set; the SQLite schema is
// always applied on open.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		s, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "driver", cfg.Driver, "name", postgres.DatabaseName(cfg.URL))
		if cfg.AutoMigrate {
			if err := postgres.Migrate(s.Pool()); err != nil {
				s.Close()
				return nil, err
			}
			slog.Info("migrations applied")
		}
		return s, nil

	case DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		slog.Info("opened database", "driver", cfg.Driver, "path", cfg.URL)
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies migrations without serving. SQLite needs none beyond Open.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		s, err := postgres.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		return postgres.Migrate(s.Pool())
	case DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return err
		}
		return s.Close()
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
