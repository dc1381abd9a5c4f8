package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/presignd"
	"github.com/sagarc03/presignd/config"
	"github.com/sagarc03/presignd/devstore"
	"github.com/sagarc03/presignd/devstore/sqlite"
	"github.com/sagarc03/presignd/filesystem"
	"github.com/sagarc03/presignd/keybackend"
)

var devstoreCmd = &cobra.Command{
	Use:   "devstore",
	Short: "Run a local S3-compatible backend for development",
	Long: `Run a minimal path-style S3 backend serving PUT and GET for the configured
bucket. Every request must carry a valid presigned signature; point
storage.endpoint at this server (e.g. http://localhost:9000) to exercise the
full upload and download flow without R2.

Objects are written under devstore.storage_path and indexed in SQLite.
Files already present in the storage path are indexed on startup.`,
	RunE: runDevstore,
}

func init() {
	devstoreCmd.Flags().Int("devstore-port", 9000, "listen port (env: PRESIGND_DEVSTORE_PORT)")
	devstoreCmd.Flags().String("devstore-path", "./devdata", "object directory (env: PRESIGND_DEVSTORE_STORAGE_PATH)")
	devstoreCmd.Flags().String("devstore-db", "devstore.db", "SQLite database (env: PRESIGND_DEVSTORE_DB_DSN)")
	devstoreCmd.Flags().String("devstore-keys", "", "extra access keys file (env: PRESIGND_DEVSTORE_KEYS_FILE)")

	rootCmd.AddCommand(devstoreCmd)
}

func runDevstore(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Connect(ctx, cfg.Devstore.DBDSN, cfg.Devstore.Table)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	if err = os.MkdirAll(cfg.Devstore.StoragePath, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Devstore.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage root: %w", err)
	}
	defer func() { _ = root.Close() }()

	store := devstore.NewStore(db.Repo(), filesystem.NewFileStorage(root), devstore.StoreConfig{
		CleanupTimeout: time.Duration(cfg.Devstore.CleanupTimeout) * time.Second,
	})

	indexed, err := store.Populate(ctx)
	if err != nil {
		return fmt.Errorf("index existing objects: %w", err)
	}
	slog.Info("indexed existing objects", "path", cfg.Devstore.StoragePath, "count", indexed)

	secrets, err := keybackend.NewSecretStore(keybackend.KeysConfig{
		Credentials: []presignd.Credential{cfg.Storage.Credential()},
		File:        cfg.Devstore.KeysFile,
	})
	if err != nil {
		return fmt.Errorf("load access keys: %w", err)
	}

	handler := devstore.NewHandler(devstore.HandlerConfig{
		Bucket:         cfg.Storage.Bucket,
		Verifier:       presignd.NewSignatureVerifier(cfg.Storage.Region, presignd.SigningService, secrets),
		MaxObjectBytes: cfg.Devstore.MaxObjectBytes,
	}, store)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Devstore.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return runServer(ctx, server, cfg.Server.ShutdownTimeout,
		"bucket", cfg.Storage.Bucket,
		"keys", secrets.Len(),
		"storage", cfg.Devstore.StoragePath,
	)
}
