package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/marvelous/internal/explorer"
	"github.com/conduit-lang/marvelous/internal/query"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP explorer",
		Long: `Serve the catalog as JSON under /api/{type}/{id}/{type}, with discovered
resources rendered as links. /ws/{type}/{id}/{type} streams every page over a
websocket. Prometheus metrics are exposed on /metrics.

When server.auth_secret is set, /api and /ws require a token from
"marvelous token".`,
		Example: `  marvelous serve
  marvelous serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load()
			if err != nil {
				return err
			}
			defer a.close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			client, err := a.client(query.WithMetrics(query.NewMetrics(reg)))
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			opts := []explorer.Option{explorer.WithLogger(a.logger), explorer.WithGatherer(reg)}
			if secret := a.cfg.Server.AuthSecret; secret != "" {
				opts = append(opts, explorer.WithAuth(explorer.NewTokenService(secret, a.cfg.Server.TokenTTL)))
				a.logger.Info("bearer token auth enabled", zap.Duration("token_ttl", a.cfg.Server.TokenTTL))
			}

			return explorer.New(client, opts...).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from config)")
	return cmd
}
