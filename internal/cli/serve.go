package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/npmmeta/internal/metrics"
	"github.com/matzehuels/npmmeta/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Routes:
  GET /{specs}            latest version per specifier
  GET /versions/{specs}   matching versions
  GET /engines/{specs}    engines per matching version
  GET /full/{specs}       normalized manifest

Specifiers are joined with "+", e.g. /vite@^5+@nuxt%2Fkit@3.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			m := metrics.New()
			m.Install()

			svc, closeStore, err := c.newService(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					logger.Warn("close store", "err", err)
				}
			}()

			logger.Info("starting server",
				"registry", cfg.Registry.URL,
				"store", cfg.Store.Backend,
				"cache_timeout", cfg.Cache.Timeout,
			)

			srv := server.New(svc,
				server.WithLogger(logger),
				server.WithMetrics(m),
				server.WithCacheMaxAge(cfg.Cache.Timeout),
				server.WithDocsURL(cfg.DocsURL),
			)
			return srv.Run(ctx, cfg.ListenAddr, cfg.MetricsAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address, empty disables (overrides metrics_addr)")

	return cmd
}
