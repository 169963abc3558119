package main

import (
	"fmt"

	"github.com/nimasrn/campaign-console/internal/app"
	"github.com/nimasrn/campaign-console/internal/config"
	"github.com/nimasrn/campaign-console/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Apply the action journal migrations",
	Annotations: map[string]string{"bootstrap": "none"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, dialect, err := app.OpenJournalDB(config.Get())
		if err != nil {
			return fmt.Errorf("open journal database: %w", err)
		}
		defer db.Close()

		if err := repository.Migrate(db, dialect); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "journal schema is up to date")
		return nil
	},
}
