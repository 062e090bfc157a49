package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/EnMasseProject/enmasse/internal/management"
	"github.com/EnMasseProject/enmasse/internal/metrics"
	"github.com/EnMasseProject/enmasse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve router metrics over HTTP",
	Long: "Start the metrics endpoint. Every scrape runs one collection pass\n" +
		"against the router management agent.",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("router-metrics serve: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info("starting router-metrics",
		"version", buildVersion,
		"router_host", cfg.Router.Host,
		"router_port", cfg.Router.Port,
		"tls", cfg.Router.TLSEnabled(),
	)

	pool, collector, err := newRouterCollector(cfg.Router, cfg.Collector, logger)
	if err != nil {
		return fmt.Errorf("router-metrics serve: %w", err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.NewServer(cfg.Server, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		connectRouter(gctx, pool, logger)
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("router-metrics serve: %w", err)
	}
	logger.Info("router-metrics stopped")
	return nil
}

// newRouterCollector wires the AMQP dialer, the connection pool and the
// collector for the fixed router bindings.
func newRouterCollector(routerCfg management.Config, collectorCfg metrics.Config, logger *slog.Logger) (*management.Pool, *metrics.Collector, error) {
	dialer, err := management.NewAMQPDialer(routerCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	pool := management.NewPool(dialer, routerCfg.RequestTimeout, logger)
	collector, err := metrics.NewCollector(collectorCfg, metrics.DefaultBindings(), pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, collector, nil
}

// connectRouter opens the first management connection ahead of the first
// scrape and logs whether the router is reachable. The connection stays
// idle in the pool.
func connectRouter(ctx context.Context, pool *management.Pool, logger *slog.Logger) {
	client, err := pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("router not reachable yet", "error", err)
		}
		return
	}
	pool.Release(client)
	logger.Info("connected to router management agent")
}
