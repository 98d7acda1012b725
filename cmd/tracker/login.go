package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginOperatorID string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange an operator key for API tokens",
	Long: `Exchange an operator id and key for a JWT access token.

The key is read from $MAKEITFAST_OPERATOR_KEY or prompted on stdin. On
success the command prints export lines for the token variables; eval the
output to make them available to the other commands:

  eval "$(tracker login --operator op_abc123)"`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginOperatorID, "operator", "", "operator id")
	_ = loginCmd.MarkFlagRequired("operator")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	key := os.Getenv("MAKEITFAST_OPERATOR_KEY")
	if key == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "operator key: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read operator key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return fmt.Errorf("operator key is required")
	}

	client := newClient()
	tokens, err := client.Login(cmd.Context(), loginOperatorID, key)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	log.Debug().Int64("expires_in", tokens.ExpiresIn).Msg("login succeeded")

	fmt.Fprintf(cmd.OutOrStdout(), "export MAKEITFAST_TOKEN=%s\n", tokens.AccessToken)
	if tokens.RefreshToken != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "export MAKEITFAST_REFRESH_TOKEN=%s\n", tokens.RefreshToken)
	}
	return nil
}
