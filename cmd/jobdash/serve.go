package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/JobAnalytics/src/config"
	"github.com/iafilius/JobAnalytics/src/metrics"
	"github.com/iafilius/JobAnalytics/src/refresh"
	"github.com/iafilius/JobAnalytics/src/web"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func newServeCmd(rf *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config, :8090)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	status := refresh.NewStatus()
	m := metrics.New()
	d, err := newDashboard(cfg,
		refresh.WithSpinner(status),
		refresh.WithNotifier(status),
		refresh.WithMetrics(m),
		refresh.WithBaseContext(ctx),
	)
	if err != nil {
		return err
	}
	if err := d.start(ctx); err != nil {
		return err
	}

	api := web.NewServer(web.Deps{
		Controller: d.ctrl,
		Charts:     d.registry,
		Status:     status,
		Options:    d.options,
		Metrics:    m,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s endpoint=%s", cfg.Addr, cfg.Endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown failed: %v", err)
	}
	d.ctrl.Wait()
	logger.Infof("stopped")
	return nil
}
