package main

import (
	"fmt"

	draftdb "github.com/mcdev12/draftturn/go/internal/draft/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the draft schema to Postgres",
		Long:  "Creates the draft tables and indexes. Safe to run multiple times (idempotent).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := setupDatabase(ctx, opts.cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			if _, err := database.ExecContext(ctx, draftdb.Schema); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
			log.Info().Str("database", opts.cfg.Database.Database).Msg("schema applied")
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}
}
