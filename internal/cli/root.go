package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// Execute runs the authzctl command tree.
func Execute() error { return NewRootCmd().Execute() }

func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "authzctl",
		Short:         "Manage roles, grants and role links for the institute service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			// A missing file is fine; the environment may already be set.
			if err := godotenv.Load(envFile); err != nil && envFile != defaultEnvFile {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file to load before running")

	root.AddCommand(
		cmdMigrate(),
		cmdSeed(),
		cmdPolicies(),
		cmdGrant(),
		cmdRevoke(),
		cmdLink(),
		cmdUnlink(),
		cmdCheck(),
		cmdToken(),
	)

	return root
}
