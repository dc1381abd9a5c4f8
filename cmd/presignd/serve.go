package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/config"
	presignhttp "github.com/sagarc03/presignd/http"
	"github.com/sagarc03/presignd/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the presignd HTTP API:

  POST /presign-put   {"key": "...", "content_type": "video/mp4"}
  POST /presign-get   {"key": "..."}
  GET  /healthz
  GET  /metrics       (when metrics are enabled)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: PRESIGND_SERVER_PORT)")
	serveCmd.Flags().Int("ttl", 600, "URL validity in seconds (env: PRESIGND_PRESIGN_TTL)")
	serveCmd.Flags().String("signer", "awsv4", "signing backend: awsv4, minio (env: PRESIGND_STORAGE_SIGNER)")
	serveCmd.Flags().String("endpoint", "", "storage endpoint override (env: PRESIGND_STORAGE_ENDPOINT)")
	serveCmd.Flags().Bool("metrics", true, "expose /metrics (env: PRESIGND_METRICS_ENABLED)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handlerConfig := presignhttp.HandlerConfig{
		CORS:         cfg.CORS,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(metrics.WithRuntimeCollectors())
		handlerConfig.Metrics = m
	}

	var observer presignd.Observer
	if m != nil {
		observer = m
	}

	issuer, err := newIssuer(ctx, cfg, observer)
	if err != nil {
		return err
	}

	handler := presignhttp.NewHandler(&handlerConfig, issuer)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return runServer(ctx, server, cfg.Server.ShutdownTimeout,
		"bucket", cfg.Storage.Bucket,
		"endpoint", cfg.Storage.BucketRef().EndpointURL(),
		"signer", cfg.Storage.Signer,
		"ttl", cfg.Presign.TTLDuration(),
		"metrics", cfg.Metrics.Enabled,
	)
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, attrs ...any) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", append([]any{"addr", server.Addr}, attrs...)...)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
