package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/tipcluster/internal/mcptools"
)

func newServeMCPCmd(a *app) *cobra.Command {
	var (
		httpAddr    string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the clustering tools as an MCP server",
		Long: `serve-mcp exposes cluster_tree, find_short_edges, subject_links,
get_clusters and get_neighbors over MCP. It speaks stdio unless --http is
set. With --graph-path in the configuration the graph is kept in KuzuDB.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(a.cfg.GraphPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if metricsAddr != "" {
				stop := serveMetrics(ctx, a, metricsAddr)
				defer stop()
			}

			svc := mcptools.NewClusterService(store, a.cfg.LabelFormat(), a.cfg.Workers, a.logger)
			if httpAddr != "" {
				a.logger.Info("serving MCP over HTTP", "addr", httpAddr)
				return mcptools.RunMCPServer(ctx, svc, httpAddr)
			}
			return mcptools.RunStdio(ctx, mcptools.NewClusterMCPServer(svc))
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "listen address for streamable HTTP (default: stdio)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for Prometheus /metrics")
	return cmd
}

// serveMetrics serves the default Prometheus registry until the returned
// stop function is called or ctx ends.
func serveMetrics(ctx context.Context, a *app, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()
	return cancel
}
