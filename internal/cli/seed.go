package cli

import (
	"fmt"

	"institute-service/internal/domain/role"
	"institute-service/pkg/rbac"

	"github.com/spf13/cobra"
)

func cmdSeed() *cobra.Command {
	var file string
	var preset string
	var dryRun bool

	c := &cobra.Command{
		Use:   "seed",
		Short: "Upsert roles and replace every stored policy tuple",
		Long: "seed loads a YAML policy file or a built-in preset, upserts its roles and\n" +
			"replaces the whole casbin_rule table in one transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPolicySet(file, preset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rules := cfg.Rules()

			if dryRun {
				for _, r := range rules {
					fmt.Fprintln(out, r.Line())
				}
				printNote(out, "dry run: %d roles, %d rules not written", len(cfg.Roles), len(rules))
				return nil
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if err := upsertRoles(cmd, b, cfg.Roles); err != nil {
				return err
			}

			if err := b.engine.ReplaceAll(cmd.Context(), rules); err != nil {
				return err
			}

			printOK(out, "seeded %d roles and %d rules", len(cfg.Roles), len(rules))
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "YAML policy file")
	c.Flags().StringVar(&preset, "preset", "", "built-in preset name (institute)")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "print the rules without writing them")

	return c
}

func upsertRoles(cmd *cobra.Command, b *backend, defs []rbac.RoleDefinition) error {
	for _, def := range defs {
		rl, err := b.roles.Upsert(cmd.Context(), role.CreateRoleInput{
			Name:        string(def.Name),
			Description: def.Description,
		})
		if err != nil {
			return fmt.Errorf("upsert role %s: %w", def.Name, err)
		}
		labelStyle.Fprintf(cmd.OutOrStdout(), "  role %-12s id=%d\n", rl.Name, rl.ID)
	}
	return nil
}
