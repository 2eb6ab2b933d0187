package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/pkg/utils"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

// tokenCmd mints access tokens for local testing; accounts are issued by
// the identity provider in production.
var tokenCmd = &cobra.Command{
	Use:   "token <account-id> <role>",
	Short: "Print a signed access token for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := mintToken(args[0], args[1], os.Getenv("JWT_SECRET"), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func mintToken(accountID, role, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET is required")
	}
	id, err := strconv.ParseInt(accountID, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid account id %q", accountID)
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return "", err
	}
	return utils.GenerateTokenWithTTL(strconv.FormatInt(id, 10), parsed.String(), secret, ttl)
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
