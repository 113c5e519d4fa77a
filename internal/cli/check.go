package cli

import (
	"fmt"

	"institute-service/internal/authz"

	"github.com/spf13/cobra"
)

func cmdCheck() *cobra.Command {
	var file string
	var preset string

	c := &cobra.Command{
		Use:   "check ROLE RESOURCE ACTION",
		Short: "Print the decision for a role, resource and action",
		Long: "check evaluates against the database by default. With --file or --preset the\n" +
			"policy set is evaluated in memory and no database is needed.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var engine *authz.Engine

			if file != "" || preset != "" {
				cfg, err := loadPolicySet(file, preset)
				if err != nil {
					return err
				}
				engine, err = offlineEngine(cfg)
				if err != nil {
					return err
				}
			} else {
				b, err := openBackend(cmd.Context())
				if err != nil {
					return err
				}
				defer b.Close()
				engine = b.engine
			}

			allowed, err := engine.Enforce(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if allowed {
				okStyle.Fprint(out, "ALLOW ")
			} else {
				denyStyle.Fprint(out, "DENY  ")
			}
			fmt.Fprintln(out, grantLabel(args))
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "evaluate a YAML policy file instead of the database")
	c.Flags().StringVar(&preset, "preset", "", "evaluate a built-in preset instead of the database")

	return c
}
