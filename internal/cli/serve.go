package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/boared/internal/adapters/http/api"
	"github.com/okian/boared/internal/config"
	"github.com/okian/boared/pkg/logger"
	"github.com/okian/boared/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func newServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), st)
		},
	}
}

// runServe serves the API until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, st *state) error {
	log := logger.Get().Named("server")
	cfg := st.cfg

	svc, err := st.openService(ctx, true)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	if st.configPath != "" {
		go func() {
			err := config.Watch(ctx, st.configPath, func(next *config.Config) {
				if err := logger.SetLevelString(next.LogLevel); err != nil {
					log.Warn(ctx, "ignoring reloaded log_level", logger.String("log_level", next.LogLevel), logger.Error(err))
					return
				}
				log.Info(ctx, "applied reloaded log level", logger.String("log_level", next.LogLevel))
			})
			if err != nil {
				log.Warn(ctx, "config watch stopped", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, logger.Get().Named("http")).Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes the system gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSystemMetrics()
		}
	}
}
