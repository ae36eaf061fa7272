package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuvault/docuvault/internal/api"
	"github.com/docuvault/docuvault/pkg/docuvault"
	"github.com/docuvault/docuvault/pkg/docuvault/config"
	"github.com/docuvault/docuvault/pkg/docuvault/conversion"
	memoryrepo "github.com/docuvault/docuvault/pkg/docuvault/repo/memory"
	postgresrepo "github.com/docuvault/docuvault/pkg/docuvault/repo/postgres"
	fsstorage "github.com/docuvault/docuvault/pkg/docuvault/storage/fs"
	memorystorage "github.com/docuvault/docuvault/pkg/docuvault/storage/memory"
	s3storage "github.com/docuvault/docuvault/pkg/docuvault/storage/s3"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	repo, cleanup, err := buildRepository(cfg)
	if err != nil {
		logger.Error("failed to set up repository", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	storeName, store, err := buildBlobStore(cfg)
	if err != nil {
		logger.Error("failed to set up blob store", "error", err)
		os.Exit(1)
	}

	svc, err := docuvault.New(
		docuvault.WithRepository(repo),
		docuvault.WithBlobStore(storeName, store),
		docuvault.WithMaxUploads(cfg.MaxUploads),
		docuvault.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	breaker := conversion.NewBreaker(conversion.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		WindowSize:       cfg.BreakerWindowSize,
		MinRequests:      cfg.BreakerMinRequests,
		CoolDown:         cfg.BreakerCoolDown,
	})
	caller := conversion.NewHTTPCaller(cfg.ConversionServiceURL, cfg.ConversionTimeout)
	gateway, err := conversion.NewGateway(repo, caller, breaker, logger)
	if err != nil {
		logger.Error("failed to create conversion gateway", "error", err)
		os.Exit(1)
	}

	router := buildRouter(svc, gateway)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

func buildRepository(cfg *config.Config) (docuvault.Repository, func(), error) {
	if cfg.UseMemoryDatabase() {
		return memoryrepo.New(), func() {}, nil
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return postgresrepo.NewWithPool(pool), pool.Close, nil
}

func buildBlobStore(cfg *config.Config) (string, docuvault.BlobStore, error) {
	backend, err := cfg.ParseStorageURL()
	if err != nil {
		return "", nil, err
	}

	switch backend.Type {
	case "memory":
		return "memory", memorystorage.New(), nil
	case "fs":
		store, err := fsstorage.New(fsstorage.Config{BaseDir: backend.BaseDir})
		if err != nil {
			return "", nil, err
		}
		return "fs", store, nil
	case "s3":
		store, err := s3storage.New(s3storage.Config{
			Region:          backend.Region,
			Bucket:          backend.Bucket,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        backend.Endpoint,
			UsePathStyle:    backend.PathStyle,
		})
		if err != nil {
			return "", nil, err
		}
		return "s3", store, nil
	}
	return "", nil, fmt.Errorf("unsupported storage backend %q", backend.Type)
}

func buildRouter(svc docuvault.Service, gateway *conversion.Gateway) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/documents", api.NewDocumentHandler(svc).Routes())
		r.Mount("/convert", api.NewConvertHandler(gateway).Routes())
	})

	return r
}
