package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/draftturn/go/internal/tools/seedpool"
	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		draftID string
		file    string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pool categories and items for a draft from YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if draftID == "" || file == "" {
				return errors.New("--draft and --file are required")
			}
			id, err := uuid.Parse(draftID)
			if err != nil {
				return fmt.Errorf("invalid draft id: %w", err)
			}
			pool, err := seedpool.LoadFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := pgxpool.New(ctx, opts.cfg.Database.ForProcess("seed").DSN())
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			res, err := seedpool.Seed(ctx, conn, id, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Pool seed complete: %d categories, %d items inserted, %d skipped\n",
				res.Categories, res.Inserted, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "draft ID to seed")
	cmd.Flags().StringVarP(&file, "file", "f", "", "pool YAML file")
	return cmd
}
