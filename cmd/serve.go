package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/scout/internal/api"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != 0 {
				c.cfg.Port = port
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "server port (default from SCOUT_PORT)")

	return cmd
}

func (c *cli) serve(parent context.Context) error {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []api.Option{api.WithGatherer(a.reg), api.WithAllowedOrigins(c.cfg.CORSOrigins)}
	if a.pool != nil {
		opts = append(opts, api.WithReadiness(a.pool))
	}
	srv := api.NewServer(fmt.Sprintf(":%d", c.cfg.Port), a.service, a.settings, c.log, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	c.log.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "port", c.cfg.Port)

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.log.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	c.log.InfoContext(shutdownCtx, "Application stopped gracefully.")

	return nil
}
