package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/windowlens/internal/config"
	"github.com/sanspareilsmyn/windowlens/internal/logging"
	"github.com/sanspareilsmyn/windowlens/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "configs/config.dev.yaml", "Path to the configuration file")
	metricsAddr := flag.String("metrics-addr", ":9108", "Listen address for the Prometheus /metrics endpoint")
	flag.Parse()

	if err := run(*configFile, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "windowlens: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, metricsAddr string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading configuration %s: %w", configFile, err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// SIGINT/SIGTERM cancel the context; everything below shuts down off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := &http.Server{Addr: metricsAddr, Handler: metricsMux()}
	go func() {
		logger.Info("Serving metrics", zap.String("addr", metricsAddr))
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	pipe, err := pipeline.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	logger.Info("WindowLens starting",
		zap.String("config", configFile),
		zap.String("aggregation", cfg.Aggregation.Name),
		zap.Duration("frame_length", cfg.Window.FrameLength),
		zap.Duration("window_length", cfg.Window.WindowLength),
	)

	if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("WindowLens exited on failure", zap.Error(err))
		return err
	}
	logger.Info("WindowLens shut down cleanly")
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
