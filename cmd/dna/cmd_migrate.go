package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crimescape.app/dna/core/config"
	"crimescape.app/dna/core/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(config.ServiceTypeCLI)
			if err != nil {
				return err
			}

			database, err := db.New(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
