package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/hassonapp/chatter/app/db"
	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api/auth"
	"github.com/hassonapp/chatter/internal/api/user"
	"github.com/hassonapp/chatter/internal/platform/cache"
	"github.com/hassonapp/chatter/internal/platform/email"
	"github.com/hassonapp/chatter/internal/platform/queue"
	"github.com/hassonapp/chatter/internal/platform/upload"
	"github.com/hassonapp/chatter/internal/worker"
)

// Container wires every dependency once at startup: pool, cache, queues,
// uploader, repositories, services and handlers.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Cache       *cache.Store
	Queues      *queue.Registry
	AuthHandler *auth.HandlerImpl
	UserHandler *user.HandlerImpl
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	connURL, err := database.ConnectionURL(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := database.Init(connURL, logger)
	if err != nil {
		return nil, err
	}

	cacheStore := cache.NewStore(cfg.Redis, logger)
	registry := queue.NewRegistry(cfg.Redis, cfg.Queue, logger)

	uploader, err := upload.NewS3Uploader(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	mailer := email.NewMailer(cfg.SMTP, logger)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	userRepo := user.NewPostgresUserRepo(pool, logger)
	userCache := user.NewCache(cacheStore, logger)

	worker.RegisterAll(registry, authRepo, userRepo, mailer, logger)

	authService := auth.NewServiceImpl(
		cfg.JWT,
		cfg.Storage,
		authRepo,
		userRepo,
		userCache,
		uploader,
		registry.Queue(queue.AuthQueue),
		registry.Queue(queue.UserQueue),
		registry.Queue(queue.EmailQueue),
		cfg.Server.ClientURL,
		logger,
	)
	userService := user.NewServiceImpl(userRepo, userCache, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Cache:       cacheStore,
		Queues:      registry,
		AuthHandler: auth.NewHandlerImpl(authService, logger),
		UserHandler: user.NewHandlerImpl(userService, logger),
	}, nil
}

// Close releases every resource held by the container. Queue shutdown comes
// first so in-flight jobs can finish against a live pool.
func (c *Container) Close() {
	if c.Queues != nil {
		c.Queues.Shutdown()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("Error closing cache connection", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB blocks until the database answers pings or retries run out.
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations applies pending schema migrations.
func (c *Container) RunMigrations() error {
	connURL, err := database.ConnectionURL(c.Config)
	if err != nil {
		return err
	}
	return database.RunMigrations(connURL, c.Logger)
}
