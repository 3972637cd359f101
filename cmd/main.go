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

	"github.com/Dosada05/smash-arena/config"
	"github.com/Dosada05/smash-arena/db"
	"github.com/Dosada05/smash-arena/handlers"
	"github.com/Dosada05/smash-arena/live"
	"github.com/Dosada05/smash-arena/middleware"
	"github.com/Dosada05/smash-arena/repositories"
	api "github.com/Dosada05/smash-arena/routes"
	"github.com/Dosada05/smash-arena/services"
	"github.com/Dosada05/smash-arena/storage"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("lambda", cfg.LambdaMode))

	ctx := context.Background()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	applied, err := db.Migrate(ctx, dbConn)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("migrations applied", slog.Any("versions", applied))

	var eventRepo repositories.ScoreEventRepository
	if cfg.MongoURI != "" {
		client, mongoDB, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, 10*time.Second)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mongo", slog.Any("error", err))
			}
		}()
		mongoRepo := repositories.NewMongoScoreEventRepository(mongoDB)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create score event indexes: %w", err)
		}
		eventRepo = mongoRepo
		logger.Info("score events stored in mongo", slog.String("database", cfg.MongoDatabase))
	} else {
		eventRepo = repositories.NewPostgresScoreEventRepository(dbConn)
		logger.Info("score events stored in postgres")
	}

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, export publishing disabled")
	}

	hub := live.NewHub(logger)
	stopHub := make(chan struct{})
	go hub.Run(stopHub)
	defer close(stopHub)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	arenaRepo := repositories.NewPostgresArenaRepository(dbConn)
	joinRepo := repositories.NewPostgresJoinRequestRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	accessService := services.NewAccessService(arenaRepo)
	standingsService := services.NewStandingsService(arenaRepo, teamRepo, matchRepo, poolRepo, standingRepo, uploader, logger)
	arenaService := services.NewArenaService(arenaRepo, joinRepo, poolRepo, userRepo, teamRepo, matchRepo, standingsService, logger)
	teamService := services.NewTeamService(teamRepo, arenaRepo, poolRepo, logger)
	matchService := services.NewMatchService(matchRepo, arenaRepo, teamRepo, eventRepo, standingsService, hub, logger)

	sched, err := services.StartSnapshotScheduler(standingsService, cfg.SnapshotInterval, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, middleware.NewAuthenticator(cfg.JWTSecretKey), api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Arena:     handlers.NewArenaHandler(arenaService),
		Team:      handlers.NewTeamHandler(teamService),
		Match:     handlers.NewMatchHandler(matchService, accessService),
		Standings: handlers.NewStandingsHandler(standingsService),
		WebSocket: handlers.NewWebSocketHandler(hub, arenaService, cfg.CORSAllowedOrigins, logger),
	}, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	if cfg.LambdaMode {
		logger.Info("starting in Lambda mode")
		lambda.Start(httpadapter.New(router).ProxyWithContext)
		return nil
	}
	return serve(router, cfg.ServerPort, logger)
}

func serve(handler http.Handler, port int, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
