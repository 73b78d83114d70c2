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

	"github.com/Dosada05/court-flow/config"
	"github.com/Dosada05/court-flow/db"
	"github.com/Dosada05/court-flow/handlers"
	"github.com/Dosada05/court-flow/hub"
	"github.com/Dosada05/court-flow/repositories"
	api "github.com/Dosada05/court-flow/routes"
	"github.com/Dosada05/court-flow/services"
	"github.com/Dosada05/court-flow/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище снимка доски
	repo, closeStore, err := openSnapshotStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	board, err := services.NewBoard(ctx, repo, cfg.InitialCourts, logger)
	if err != nil {
		return err
	}
	logger.Info("board loaded", slog.Int("courts", len(board.Snapshot().Courts)))

	// Архив доски перед сбросом (Cloudflare R2), если настроен
	var archiver services.SnapshotArchiver
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		archiver = storage.NewSnapshotArchiver(uploader, nil)
		logger.Info("Cloudflare R2 board archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	wsHub := hub.NewHub(logger)
	detachHub := wsHub.Attach(board)
	defer detachHub()

	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" {
		if passwordHash, err = services.HashPassword(cfg.AdminPassword); err != nil {
			return err
		}
	}
	session := services.NewAdminSession(nil)
	authService := services.NewAuthService(passwordHash, session)
	queueService := services.NewQueueService(board, services.QueueServiceConfig{AvatarBaseURL: cfg.AvatarBaseURL})
	courtService := services.NewCourtService(board, services.CourtServiceConfig{
		Announcer: wsHub,
		Archiver:  archiver,
	}, logger)

	matcher := services.NewAutoMatcher(board, courtService, session, cfg.AutomationDebounce, logger)
	matcher.Start()
	defer matcher.Stop()

	if cfg.ResetCron != "" {
		scheduler, err := services.NewResetScheduler(cfg.ResetCron, courtService, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		logger.Info("nightly reset scheduled", slog.String("spec", cfg.ResetCron))
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Dependencies{
		AuthHandler:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.AdminTokenTTL),
		BoardHandler:      handlers.NewBoardHandler(board, queueService, courtService),
		AutomationHandler: handlers.NewAutomationHandler(matcher),
		WebSocketHandler:  handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Gate:              session,
		JWTSecret:         cfg.JWTSecretKey,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}

// openSnapshotStore выбирает бэкенд хранения по STORE_BACKEND.
func openSnapshotStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.SnapshotRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
		logger.Info("database connection established")
		return repositories.NewPostgresSnapshotRepository(dbConn), closer(logger, "database", dbConn), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
		return repositories.NewRedisSnapshotRepository(client, cfg.RedisKey), closer(logger, "redis", client), nil

	default:
		logger.Warn("using in-memory board store, state is lost on restart")
		return repositories.NewMemorySnapshotRepository(), func() {}, nil
	}
}

type closable interface {
	Close() error
}

func closer(logger *slog.Logger, name string, c closable) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("failed to close connection", slog.String("store", name), slog.Any("error", err))
			return
		}
		logger.Info("connection closed", slog.String("store", name))
	}
}
