package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/auth"
	"catalog/config"
	"catalog/db"
	"catalog/imaging"
	"catalog/logging"
	"catalog/metrics"
	"catalog/routes"
	"catalog/services"
	"catalog/storage"
	"catalog/upload"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	// Initialize database
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	store, uploadsDir, err := newStorage(cfg.Storage)
	if err != nil {
		return err
	}
	pipeline := upload.New(store, imaging.NewCompressor(cfg.Upload.Quality),
		upload.WithLimits(upload.Limits{MaxFileSize: cfg.Upload.MaxFileSize, MaxFiles: cfg.Upload.MaxFiles}),
		upload.WithConcurrency(cfg.Upload.Concurrency),
		upload.WithMetrics(metrics.Default()),
		upload.WithLogger(logging.Component("upload")),
	)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	app := routes.NewApp(cfg.Upload.BodyLimit(), cfg.CORSOrigins)
	routes.SetupRoutes(app, routes.Deps{
		DB:         conn,
		Tokens:     tokens,
		Accounts:   services.NewAccountService(conn, tokens),
		Categories: services.NewCategoryService(conn, pipeline),
		Products:   services.NewProductService(conn, pipeline),
		Banners:    services.NewBannerService(conn, pipeline),
		UploadsDir: uploadsDir,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Driver).Msg("Starting server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully shut down server")
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("Server stopped")
	return nil
}

// newStorage builds the configured storage backend. For local storage it also
// returns the directory to serve under /uploads.
func newStorage(cfg config.StorageConfig) (storage.Storage, string, error) {
	switch cfg.Driver {
	case "local":
		fs, err := storage.NewFilesystem(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return fs, fs.Dir(), nil
	case "s3":
		s3, err := storage.NewS3(storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
