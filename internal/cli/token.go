package cli

import (
	"fmt"
	"strconv"

	"institute-service/internal/auth"
	"institute-service/internal/config"

	"github.com/spf13/cobra"
)

func cmdToken() *cobra.Command {
	var roleID string
	var name string
	var subject string

	c := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if roleID == "" {
				return fmt.Errorf("--role-id is required")
			}
			if _, err := strconv.ParseInt(roleID, 10, 64); err != nil {
				return fmt.Errorf("--role-id must be an integer: %q", roleID)
			}

			cfg, err := config.LoadJWT()
			if err != nil {
				return err
			}

			token, err := auth.NewJWTService(cfg.Secret, cfg.ExpiryDuration).Generate(subject, name, roleID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&roleID, "role-id", "", "id of the role the token carries")
	c.Flags().StringVar(&name, "name", "", "display name claim")
	c.Flags().StringVar(&subject, "subject", "authzctl", "sub claim")

	return c
}
