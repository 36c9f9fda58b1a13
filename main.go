package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/routes"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := config.NewLogger(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with an error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	log.Info("Starting Bakehouse API server...")

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := config.Migrate(db); err != nil {
		return err
	}
	log.Info("Database migration completed successfully")

	if err := utils.RegisterValidators(); err != nil {
		return err
	}

	streams, endStreams := context.WithCancel(context.Background())
	defer endStreams()
	deps := routes.Deps{Config: cfg, DB: db, Log: log, Streams: streams}

	if cfg.S3Enabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return err
		}
		deps.Images = services.NewImageService(s3Service)
		log.WithField("bucket", cfg.AWSS3Bucket).Info("Image uploads enabled")
	} else {
		log.Warn("AWS_S3_BUCKET is not set, image uploads are disabled")
	}

	if cfg.RedisURL != "" {
		broker, err := services.NewRedisBroker(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer broker.Close()
		deps.Broker = broker
		log.Info("Chat events are shared through Redis")
	}

	router, err := routes.NewRouter(deps)
	if err != nil {
		return err
	}

	server := newServer(cfg, router)
	server.RegisterOnShutdown(endStreams)

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", listener.Addr().String()).Info("Server is running")
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newServer configures the HTTP server. WriteTimeout is left unset so that event streams
// are not cut off.
func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
