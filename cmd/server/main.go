package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twoLoop-40/hwp-transformer/internal/api"
	"github.com/twoLoop-40/hwp-transformer/internal/config"
	"github.com/twoLoop-40/hwp-transformer/internal/metrics"
	"github.com/twoLoop-40/hwp-transformer/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			log.Error("load configuration", "path", path, "error", err)
			os.Exit(1)
		}
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, m, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting hwp-transformer", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
