package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cschleiden/go-workflows/backend"
	"github.com/cschleiden/go-workflows/client"
	"github.com/cschleiden/go-workflows/diag"
	"github.com/cschleiden/go-workflows/worker"
	"github.com/joho/godotenv"

	"github.com/QuenumGerald/snapcloud/internal/agents"
	"github.com/QuenumGerald/snapcloud/internal/config"
	"github.com/QuenumGerald/snapcloud/internal/orchestration"
	"github.com/QuenumGerald/snapcloud/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("snapcloud exited with error", "err", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendOpts := []backend.BackendOption{backend.WithLogger(logger)}

	if cfg.TraceStdout {
		tp, err := newTracerProvider()
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
		backendOpts = append(backendOpts, backend.WithTracerProvider(tp))
	}

	b, err := newBackend(cfg, backendOpts...)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}

	providers, err := agents.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating provider %q: %w", cfg.Provider, err)
	}

	w := worker.New(b, nil)
	if err := orchestration.Register(w, &orchestration.Activities{
		Splitter:      providers.Splitter,
		Generator:     providers.Generator,
		Auditor:       providers.Auditor,
		StepTimeout:   cfg.StepTimeout,
		SplitFallback: cfg.SplitFallback,
	}); err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("starting worker: %w", err)
	}

	facade := server.New(client.New(b), cfg, logger)

	mux := http.NewServeMux()
	mux.Handle("/", facade.Handler())
	if db, ok := b.(diag.Backend); ok {
		mux.Handle("/diag/", http.StripPrefix("/diag", diag.NewServeMux(db)))
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SnapCloud backend listening", "port", cfg.Port, "backend", cfg.Backend, "provider", cfg.Provider)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigint:
		logger.Info("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "err", err)
	}

	cancel()
	if err := w.WaitForCompletion(); err != nil {
		return fmt.Errorf("stopping worker: %w", err)
	}

	return nil
}
