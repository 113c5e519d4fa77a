package cli

import (
	"fmt"

	"institute-service/pkg/validator"

	"github.com/spf13/cobra"
)

func validateGrant(role, resource, action string) error {
	if err := validator.RoleName(role); err != nil {
		return err
	}
	if err := validator.Resource(resource); err != nil {
		return err
	}
	return validator.Action(action)
}

func validateLink(child, parent string) error {
	if err := validator.RoleName(child); err != nil {
		return err
	}
	if err := validator.RoleName(parent); err != nil {
		return err
	}
	if child == parent {
		return fmt.Errorf("a role cannot inherit from itself")
	}
	return nil
}

func cmdGrant() *cobra.Command {
	return &cobra.Command{
		Use:   "grant ROLE RESOURCE ACTION",
		Short: "Allow ROLE to perform ACTION on RESOURCE",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateGrant(args[0], args[1], args[2]); err != nil {
				return err
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			if _, err := b.roles.GetByName(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("role %s: %w", args[0], err)
			}

			added, err := b.engine.AddPolicy(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printChanged(cmd.OutOrStdout(), added, "granted "+grantLabel(args), "already granted "+grantLabel(args))
			return nil
		},
	}
}

func cmdRevoke() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke ROLE RESOURCE ACTION",
		Short: "Remove a grant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateGrant(args[0], args[1], args[2]); err != nil {
				return err
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			removed, err := b.engine.RemovePolicy(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printChanged(cmd.OutOrStdout(), removed, "revoked "+grantLabel(args), "no such grant "+grantLabel(args))
			return nil
		},
	}
}

func cmdLink() *cobra.Command {
	return &cobra.Command{
		Use:   "link CHILD PARENT",
		Short: "Make CHILD inherit every grant of PARENT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLink(args[0], args[1]); err != nil {
				return err
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			for _, name := range args {
				if _, err := b.roles.GetByName(cmd.Context(), name); err != nil {
					return fmt.Errorf("role %s: %w", name, err)
				}
			}

			added, err := b.engine.AddRoleLink(args[0], args[1])
			if err != nil {
				return err
			}
			printChanged(cmd.OutOrStdout(), added, args[0]+" now inherits "+args[1], args[0]+" already inherits "+args[1])
			return nil
		},
	}
}

func cmdUnlink() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink CHILD PARENT",
		Short: "Remove an inheritance link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateLink(args[0], args[1]); err != nil {
				return err
			}

			b, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			removed, err := b.engine.RemoveRoleLink(args[0], args[1])
			if err != nil {
				return err
			}
			printChanged(cmd.OutOrStdout(), removed, args[0]+" no longer inherits "+args[1], "no link "+args[0]+" -> "+args[1])
			return nil
		},
	}
}

func grantLabel(args []string) string {
	return fmt.Sprintf("%s %s/%s", args[0], args[1], args[2])
}
