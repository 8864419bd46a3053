package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/procgraph/internal/server"
	"github.com/matzehuels/procgraph/pkg/config"
	"github.com/matzehuels/procgraph/pkg/observability/prom"
	"github.com/matzehuels/procgraph/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Routes:
  GET  /healthz             liveness and build information
  GET  /metrics             Prometheus metrics
  POST /v1/assemble         assemble a topology request
  POST /v1/hull             compute a rounded group hull
  GET  /v1/models           list stored models
  GET  /v1/models/{id}      fetch a stored model

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc := c.cfg.Server
			if cmd.Flags().Changed("addr") {
				sc.Addr = addr
			}

			runner, err := c.newRunner(ctx, false, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			var st store.Store
			if c.cfg.Store.Backend != config.BackendNone {
				if st, err = c.newStore(ctx); err != nil {
					return err
				}
				runner.Store = st
			}

			opts := server.Options{
				Addr:            sc.Addr,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				MaxBodyBytes:    sc.MaxBodyBytes,
				Tiling:          c.cfg.Tiling,
				Groups:          c.cfg.Hull.GroupOptions(),
				Algorithm:       c.cfg.Layout.Algorithm,
			}
			if sc.Metrics && !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				prom.New(reg).Install()
				opts.Gatherer = reg
			}

			srv := server.New(runner, st, c.Logger, opts)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics route")

	return cmd
}
