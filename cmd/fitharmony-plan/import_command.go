package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claude/fitharmony/internal/ingest/report"
	"github.com/claude/fitharmony/internal/storage"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		userID     int
		sqlitePath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "import <export.csv>",
		Short: "Import a body-composition CSV export into the local readings store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if userID <= 0 {
				return errors.New("--user must be a positive user id")
			}
			path := sqlitePath
			if path == "" {
				path = cfg.SQLite.Path
			}
			if path == "" {
				return errors.New("no readings store: pass --sqlite or set sqlite.path")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening export: %w", err)
			}
			defer f.Close()

			src, err := storage.OpenSQLite(path)
			if err != nil {
				return err
			}
			defer src.Close()

			res, err := report.NewProvider(src, ctx.logger(cmd.ErrOrStderr())).Ingest(cmd.Context(), f, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "Rows:      %d\n", res.RowsReceived)
			fmt.Fprintf(out, "Readings:  %d (%d new, %d already stored)\n",
				res.ReadingsReceived, res.ReadingsInserted, res.ReadingsSkipped)
			if len(res.RejectedColumns) > 0 {
				fmt.Fprintf(out, "Ignored:   %s\n", strings.Join(res.RejectedColumns, ", "))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "User id the readings belong to")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Readings database (defaults to sqlite.path from the config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the import result as JSON")

	return cmd
}
