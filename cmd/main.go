package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/fencing-bracket/brackets"
	"github.com/Dosada05/fencing-bracket/config"
	"github.com/Dosada05/fencing-bracket/db"
	"github.com/Dosada05/fencing-bracket/handlers"
	"github.com/Dosada05/fencing-bracket/metrics"
	"github.com/Dosada05/fencing-bracket/middleware"
	"github.com/Dosada05/fencing-bracket/repositories"
	api "github.com/Dosada05/fencing-bracket/routes"
	"github.com/Dosada05/fencing-bracket/services"
	"github.com/Dosada05/fencing-bracket/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
		slog.Bool("auth", cfg.JWTSecretKey != ""),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  repositories.Store
		pinger handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store = repositories.NewMemoryStore()
		logger.Warn("using in-memory store, results are lost on exit")
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return err
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return err
		}
		store = repositories.NewPostgresStore(dbConn)
		pinger = dbConn
		logger.Info("database connection established")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	var uploader storage.FileUploader
	r2 := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2.Enabled() {
		up, err := storage.NewCloudflareR2Uploader(ctx, r2)
		if err != nil {
			return err
		}
		uploader = up
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("R2 not configured, round export disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)

	rec := metrics.New()

	roundService := services.NewRoundService(store, wsHub, rec, logger, cfg.MinTableSize)
	seedingService := services.NewSeedingService(store, logger)
	bracketService := services.NewBracketService(store, wsHub, rec, logger)
	boutService := services.NewBoutService(store, wsHub, rec, logger)
	relayService := services.NewRelayService(store, wsHub, rec, logger)
	exportService := services.NewExportService(store, uploader, rec, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Round:     handlers.NewRoundHandler(roundService, seedingService, exportService, logger),
		Bout:      handlers.NewBoutHandler(boutService, bracketService, logger),
		Relay:     handlers.NewRelayHandler(relayService, logger),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.AllowedOrigins, logger),
		Health:    handlers.NewHealthHandler(pinger, logger),
	}, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        rec,
		RequireScorer:  middleware.RequireScorer([]byte(cfg.JWTSecretKey), logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}
