package cli

import (
	"github.com/spf13/cobra"
)

func cmdMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the roles, casbin_rule and audit_events tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			printOK(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
