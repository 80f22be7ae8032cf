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

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/tabroom/brackets"
	"github.com/Dosada05/tabroom/config"
	"github.com/Dosada05/tabroom/db"
	"github.com/Dosada05/tabroom/handlers"
	"github.com/Dosada05/tabroom/middleware"
	"github.com/Dosada05/tabroom/repositories"
	api "github.com/Dosada05/tabroom/routes"
	"github.com/Dosada05/tabroom/services"
	"github.com/Dosada05/tabroom/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, db.DefaultPool, cfg.DBTimeout)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		logger.Error("failed to create schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	archiver := storage.NopArchiver()
	if cfg.R2.Enabled() {
		store, err := storage.NewCloudflareR2Store(ctx, cfg.R2)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewArchiver(store)
		logger.Info("snapshot archiving enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	judgeRepo := repositories.NewPostgresJudgeRepository(dbConn)
	conflictRepo := repositories.NewPostgresConflictRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)

	tabulationService := services.NewTabulationService(
		repositories.NewTransactor(dbConn),
		teamRepo,
		judgeRepo,
		conflictRepo,
		pairingRepo,
		settingsRepo,
		hub,
		archiver,
		logger,
	)
	rosterService := services.NewRosterService(teamRepo, judgeRepo, conflictRepo, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Tabulation: handlers.NewTabulationHandler(tabulationService),
		Roster:     handlers.NewRosterHandler(rosterService),
		WebSocket:  handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, logger),
	}, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           middleware.NewAuthenticator(cfg.JWTSecretKey, logger),
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
