package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/marvelous/internal/explorer"
)

func newTokenCommand(root *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the explorer",
		Example: `  marvelous token --subject dashboard
  curl -H "Authorization: Bearer $(marvelous token)" localhost:8080/api/comics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.Server.AuthSecret == "" {
				return &configError{err: errors.New("server.auth_secret is not set")}
			}
			if ttl <= 0 {
				ttl = a.cfg.Server.TokenTTL
			}

			token, err := explorer.NewTokenService(a.cfg.Server.AuthSecret, ttl).Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "marvelous", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default server.token_ttl)")
	return cmd
}
