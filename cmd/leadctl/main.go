// Command leadctl runs maintenance tasks against the buyer leads database:
// applying migrations, importing a CSV file and exporting buyers.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/JonMunkholm/buyerleads/internal/config"
	"github.com/JonMunkholm/buyerleads/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Buyer leads maintenance tool",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newExportCmd(a),
	)
	return root
}
