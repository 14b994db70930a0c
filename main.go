package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kevinaaaquil/bookshelf/config"
	"github.com/kevinaaaquil/bookshelf/handlers"
	"github.com/kevinaaaquil/bookshelf/logger"
	"github.com/kevinaaaquil/bookshelf/service"
	"github.com/kevinaaaquil/bookshelf/store"
	"github.com/kevinaaaquil/bookshelf/store/memory"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("bookshelf")
	}
}

// run returns only after the store and scheduler are released, so a failed
// listener still shuts down cleanly.
func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	var (
		st         service.Store
		disconnect = func(context.Context) error { return nil }
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		st = memory.New()
	default:
		db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return fmt.Errorf("mongodb: %w", err)
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongodb indexes: %w", err)
		}
		st, disconnect = db, db.Disconnect
	}
	defer func() {
		if err := disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("store disconnect")
		}
	}()

	var notifier service.Notifier
	if m := service.NewMailer(service.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.ModeratorEmail,
	}); m != nil {
		notifier = m
	} else {
		log.Info().Msg("SMTP_HOST or MODERATOR_EMAIL not set; suggestion mails disabled")
	}

	catalog := service.NewCatalog(st, notifier)
	auth := service.NewAuth(st, cfg.JWTSecret, cfg.TokenTTL)

	if cfg.AdminEmail != "" {
		if _, err := catalog.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	uploader := &handlers.ImageUploader{MaxBytes: cfg.MaxUploadBytes()}
	if cfg.S3Bucket != "" {
		images, err := service.NewS3Images(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3PublicBaseURL)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		uploader.Store = images
	} else {
		log.Warn().Msg("AWS_S3_BUCKET not set; image uploads will fail")
	}

	reconciler := service.NewReconciler(st, cfg.ReconcileSchedule)
	if err := reconciler.Start(); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Catalog:     catalog,
		Auth:        auth,
		Images:      uploader,
		Metadata:    service.NewMetadataClient(cfg.GoogleBooksURL),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	listenErr := serve(server, quit)

	reconciler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if listenErr != nil {
		return fmt.Errorf("listen: %w", listenErr)
	}
	return nil
}

// serve blocks until a stop signal arrives or the listener fails. It returns
// the listener error, or nil when stopped by a signal.
func serve(server *http.Server, stop <-chan os.Signal) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		return nil
	case err := <-serverErr:
		return err
	}
}
