package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prudhvinik1/chatline/internal/access"
	"github.com/prudhvinik1/chatline/internal/api"
	"github.com/prudhvinik1/chatline/internal/config"
	"github.com/prudhvinik1/chatline/internal/database"
	"github.com/prudhvinik1/chatline/internal/observability"
	"github.com/prudhvinik1/chatline/internal/repositories"
	"github.com/prudhvinik1/chatline/internal/services"
	"github.com/prudhvinik1/chatline/internal/storage"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, nil)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runMigrate(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("schema applied")
	return nil
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	profiles := repositories.NewPostgresProfileRepository(pool)
	contacts := repositories.NewPostgresContactRepository(pool)
	auth := services.NewAuthService(
		repositories.NewPostgresAccountRepository(pool),
		repositories.NewPostgresDeviceRepository(pool),
		repositories.NewRedisSessionRepository(redisClient, logger),
		profiles,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		logger,
	)

	var avatars api.AvatarUploader
	if cfg.AvatarsEnabled() {
		store, err := storage.NewS3AvatarStore(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.S3PublicURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create avatar store: %w", err)
		}
		avatars = store
	}

	server := api.NewServer(api.Deps{
		Auth:                 auth,
		Profiles:             profiles,
		Contacts:             contacts,
		Presence:             presenceStore(cfg, pool, redisClient),
		Gate:                 access.NewGate(contacts, access.UnknownPolicy(cfg.UnknownVisibility), metrics),
		Avatars:              avatars,
		StoreChecks:          storeChecks(pool, redisClient),
		PresenceWriteTimeout: cfg.PresenceWriteTimeout,
		Logger:               logger,
		Metrics:              metrics,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.ServerPort, "presence_store", cfg.PresenceStore)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return server.Drain(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}

func presenceStore(cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) repositories.PresenceRepository {
	if cfg.PresenceStore == config.PresenceStoreRedis {
		return repositories.NewRedisPresenceRepository(client, cfg.PresenceTTL)
	}
	return repositories.NewPostgresPresenceRepository(pool)
}

func storeChecks(pool *pgxpool.Pool, client *redis.Client) map[string]api.StoreCheck {
	return map[string]api.StoreCheck{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
