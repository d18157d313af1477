package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-portal/internal/session"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect portal credentials",
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Print the employee id a credential resolves to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := tokenSecret
		if secret == "" {
			if cfg, err := loadConfig(configPath); err == nil {
				secret = cfg.Security.TokenSecret
			}
		}

		verifier := session.NewTokenVerifier(secret)
		employeeID, err := verifier.Subject(args[0])
		if err != nil {
			return err
		}

		mode := "decoded"
		if verifier.Verifies() {
			mode = "verified"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "employee_id=%d (%s)\n", employeeID, mode)
		return nil
	},
}

var tokenSecret string

func init() {
	tokenInspectCmd.Flags().StringVar(&tokenSecret, "secret", "", "HS256 secret, defaults to security.token_secret")
	tokenCmd.AddCommand(tokenInspectCmd)
}
