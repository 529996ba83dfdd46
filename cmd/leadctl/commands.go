package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/JonMunkholm/buyerleads/internal/ratelimit"
	"github.com/JonMunkholm/buyerleads/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Migrate(cmd.Context(), a.cfg.Database); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("database is up to date", "driver", a.cfg.Database.Driver)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var (
		file, owner string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import buyers from a CSV file in one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("--owner must be a user id: %w", err)
			}

			data, err := readInput(file)
			if err != nil {
				return err
			}

			svc, closeStore, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if dryRun {
				return printPreview(cmd, svc, data)
			}

			res, err := svc.ImportCSV(cmd.Context(), actor, data)
			for _, rowErr := range res.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %s\n", rowErr.Row, rowErr.Message)
			}
			if err != nil {
				return fmt.Errorf("import: %s", core.FormatUserError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d buyers\n", res.Inserted)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "CSV file to import, - for stdin")
	cmd.Flags().StringVar(&owner, "owner", "", "user id that will own the imported buyers")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without importing")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func printPreview(cmd *cobra.Command, svc *core.Service, data []byte) error {
	preview, err := svc.PreviewImport(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("preview: %s", core.FormatUserError(err))
	}
	for _, rowErr := range preview.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %s\n", rowErr.Row, rowErr.Message)
	}
	sum := preview.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "%d rows: %d valid, %d invalid, %d duplicate phones\n",
		sum.TotalRows, sum.ValidRows, sum.ErrorRows, sum.DuplicateInFile)
	if !preview.CanCommit() {
		return fmt.Errorf("import would be rejected")
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out    string
		format string
		q      core.ListQuery
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export buyers as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("--format must be csv or xlsx, got %q", format)
			}

			svc, closeStore, err := a.service(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			w := cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			var n int
			if format == "xlsx" {
				n, err = svc.ExportXLSX(cmd.Context(), q, w)
			} else {
				n, err = svc.ExportCSV(cmd.Context(), q, w)
			}
			if err != nil {
				return fmt.Errorf("export: %s", core.FormatUserError(err))
			}
			slog.Info("export complete", "format", format, "rows", n, "out", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&q.City, "city", "", "filter by city")
	cmd.Flags().StringVar(&q.PropertyType, "property-type", "", "filter by property type")
	cmd.Flags().StringVar(&q.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&q.Timeline, "timeline", "", "filter by timeline")
	cmd.Flags().StringVar(&q.Search, "search", "", "match name, phone or email")
	return cmd
}

// service opens the configured store. Commands are single-user, so there is
// no mutation rate limit.
func (a *app) service(cmd *cobra.Command) (*core.Service, func(), error) {
	st, err := store.Open(cmd.Context(), a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	svc := core.NewService(st, ratelimit.Unlimited{}, a.cfg.Service())
	return svc, func() { st.Close() }, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
