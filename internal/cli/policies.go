package cli

import (
	"fmt"

	"institute-service/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func cmdPolicies() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "Print every stored policy tuple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rules, err := postgres.NewPolicyRepository(db).LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range rules {
				fmt.Fprintln(out, r.Line())
			}
			printNote(out, "%d rules", len(rules))
			return nil
		},
	}
}
