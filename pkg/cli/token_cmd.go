package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		sub    string
		email  string
		name   string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 dev token for local testing",
		Long: `Token mints a short-lived HS256 JWT accepted by a server running with
JWT_SECRET. It is a development convenience only; production deployments
validate tokens against the identity provider's JWKS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or JWT_SECRET)")
			}
			if sub == "" {
				return fmt.Errorf("--sub is required")
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"sub": sub,
				"iat": now.Unix(),
				"exp": now.Add(ttl).Unix(),
			}
			if email != "" {
				claims["email"] = email
			}
			if name != "" {
				claims["name"] = name
			}
			if role != "" {
				claims["role"] = role
			}

			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&sub, "sub", "", "subject (external principal id)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().StringVar(&role, "role", "", "role claim (admin, staff, client)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
