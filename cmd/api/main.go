package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"farmmarket/internal/cache"
	"farmmarket/internal/config"
	"farmmarket/internal/database"
	"farmmarket/internal/events"
	"farmmarket/internal/handlers"
	"farmmarket/internal/jobs"
	"farmmarket/internal/log"
	"farmmarket/internal/middleware"
	"farmmarket/internal/repository"
	"farmmarket/internal/repository/memory"
	"farmmarket/internal/security"
	"farmmarket/internal/server"
	"farmmarket/internal/service"
	"farmmarket/internal/storage"
)

type stores struct {
	users    service.UserStore
	products service.ProductStore
	audit    interface {
		events.AuditStore
		handlers.AuditLister
	}
	pool *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStores(ctx, cfg, logger)

	var (
		redisClient *redis.Client
		cachePinger handlers.Pinger
		limiter     middleware.Limiter
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		cachePinger = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		if cfg.Security.AuthAttemptsPerMinute > 0 {
			limiter = cache.NewWindowLimiter(redisClient, cfg.Security.AuthAttemptsPerMinute, time.Minute)
		}
	} else {
		logger.Warn().Msg("redis.addr not set: events and auth throttling disabled")
	}
	publisher := events.NewPublisher(redisClient, cfg.Redis.Stream)

	var objects service.ObjectWriter
	if cfg.Storage.Endpoint != "" {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
		objects = objectStore
	} else {
		logger.Warn().Msg("storage.endpoint not set: image uploads disabled")
	}

	tokens := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	auth := service.NewAuthService(st.users, tokens, publisher, logger)
	approval := service.NewApprovalService(st.users, publisher, logger)
	catalog := service.NewCatalogService(st.products, publisher, logger)
	uploads := service.NewUploadService(objects, cfg.Storage.MaxUploadBytes, logger)

	if err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure admin account")
	}

	deps := handlers.Deps{
		Log:         logger,
		Environment: cfg.Environment,
		Tokens:      tokens,
		Auth:        auth,
		Approval:    approval,
		Catalog:     catalog,
		Uploads:     uploads,
		Audit:       st.audit,
		Limiter:     limiter,
		Cache:       cachePinger,
	}
	if st.pool != nil {
		deps.Database = st.pool
	}
	httpServer := server.NewHTTPServer(cfg, logger, handlers.NewHandlerSet(deps))

	scheduler := jobs.NewScheduler(approval, publisher, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	// Without postgres the worker cannot share the audit table, so the
	// stream is drained in-process into the memory store.
	if st.pool == nil && redisClient != nil {
		consumer := events.NewConsumer(redisClient, cfg.Redis.Stream, cfg.Redis.Group, cfg.Redis.Consumer,
			cfg.Redis.ClaimInterval, logger, events.NewProcessor(st.audit, logger))
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("in-process audit consumer stopped")
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	shutdown(logger, httpServer, scheduler, st.pool, redisClient)
}

func openStores(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) stores {
	if cfg.Postgres.DSN == "" {
		logger.Warn().Msg("postgres.dsn not set: using in-memory store, data is lost on exit")
		mem := memory.NewStore()
		return stores{users: mem.Users(), products: mem.Products(), audit: mem.Audit()}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	return stores{
		users:    repository.NewUserRepository(pool),
		products: repository.NewProductRepository(pool),
		audit:    repository.NewAuditRepository(pool),
		pool:     pool,
	}
}

func shutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
