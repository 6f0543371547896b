package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"placesearch/internal/domain"
	"placesearch/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(os.Stdout, true, a.logLevel())
			slog.SetDefault(logger)
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(cmd.Context(), addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(parent context.Context, addr string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := a.assemble(ctx, logger, true)
	if err != nil {
		return err
	}
	defer c.Close()

	svc, err := c.searchService(ctx, logger)
	if err != nil {
		return err
	}

	// Generations published by other processes trigger a reload.
	if c.bus != nil {
		sub, err := c.bus.SubscribeRebuilt(func(ctx context.Context, gen domain.Generation) {
			logger.Info("rebuild event received", "generation", gen.ID, "count", gen.Count)
			if err := svc.Reload(ctx); err != nil {
				logger.Error("reload after rebuild event failed", "generation", gen.ID, "error", err)
			}
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	api := httpapi.New(svc, c.builder(logger), httpapi.Config{
		CORSOrigin: a.cfg.Server.CORSOrigin,
		MaxTopK:    a.cfg.Server.MaxTopK,
	}, logger)

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
