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

	"github.com/esportium/esports-arena/config"
	"github.com/esportium/esports-arena/db"
	"github.com/esportium/esports-arena/handlers"
	"github.com/esportium/esports-arena/live"
	"github.com/esportium/esports-arena/repositories"
	"github.com/esportium/esports-arena/routes"
	"github.com/esportium/esports-arena/services"
	"github.com/esportium/esports-arena/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()
	logger.Info("connected to database")

	var uploader storage.FileUploader
	if cfg.MediaConfigured() {
		uploader, err = storage.NewS3Uploader(storage.S3UploaderConfig{
			Endpoint:        cfg.Media.Endpoint,
			Region:          cfg.Media.Region,
			AccessKeyID:     cfg.Media.AccessKeyID,
			SecretAccessKey: cfg.Media.SecretAccessKey,
			BucketName:      cfg.Media.BucketName,
			PublicBaseURL:   cfg.Media.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize media storage: %w", err)
		}
		logger.Info("media storage initialized", slog.String("bucket", cfg.Media.BucketName))
	} else {
		logger.Warn("media storage not configured, uploads are disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()

	userRepo := repositories.NewPostgresUserRepository(conn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(conn)
	competitorRepo := repositories.NewPostgresCompetitorRepository(conn)
	matchRepo := repositories.NewPostgresMatchRepository(conn)
	newsRepo := repositories.NewPostgresNewsRepository(conn)
	highlightRepo := repositories.NewPostgresHighlightRepository(conn)
	transactor := repositories.NewTransactor(conn)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	tournamentService := services.NewTournamentService(conn, tournamentRepo, competitorRepo, matchRepo, userRepo, uploader, logger)
	competitorService := services.NewCompetitorService(competitorRepo, tournamentRepo, uploader)
	matchService := services.NewMatchService(conn, transactor, matchRepo, tournamentRepo, competitorRepo, hub, services.DefaultMatchPolicy())
	newsService := services.NewNewsService(newsRepo, uploader)
	highlightService := services.NewHighlightService(highlightRepo, tournamentRepo, uploader, logger)

	jwtSecret := []byte(cfg.JWTSecretKey)
	router := routes.New(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, jwtSecret),
		User:       handlers.NewUserHandler(userService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Competitor: handlers.NewCompetitorHandler(competitorService),
		Match:      handlers.NewMatchHandler(matchService),
		News:       handlers.NewNewsHandler(newsService),
		Highlight:  handlers.NewHighlightHandler(highlightService),
		WebSocket:  handlers.NewWebSocketHandler(hub, logger),
	}, jwtSecret, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	logger.Info("starting server", slog.Int("port", cfg.ServerPort))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
