// Package providers builds the storefront's dependency graph from Settings.
package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/controllers"
	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/app/listeners"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/app/routes"
	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/app"
	"github.com/retromusic/storefront/pkg/auth"
	"github.com/retromusic/storefront/pkg/bind"
	"github.com/retromusic/storefront/pkg/cache"
	"github.com/retromusic/storefront/pkg/database"
	"github.com/retromusic/storefront/pkg/event"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/mail"
	"github.com/retromusic/storefront/pkg/queue"
	"github.com/retromusic/storefront/pkg/router"
	"github.com/retromusic/storefront/pkg/schedule"
	"github.com/retromusic/storefront/pkg/storage"
)

const (
	queueMaxRetry = 3
	queueBackoff  = 5 * time.Second
)

// Container holds every long-lived dependency of a running process.
type Container struct {
	Settings *config.Settings
	DB       *gorm.DB
	Redis    *redis.Client
	Cache    *cache.Store
	Queue    *queue.Manager
	Mailer   *mail.Mailer
	Events   *event.Bus
	Disk     storage.Disk
	Tokens   *auth.Manager

	Auth    *services.AuthService
	Orders  *services.OrderService
	Catalog *services.CatalogService
	Contact *services.ContactService
}

// Boot connects to the database, Redis (when enabled) and the storage disk,
// then wires the services.
func Boot(ctx context.Context, s *config.Settings) (*Container, error) {
	logger.Setup(s.App.Env, s.App.LogLevel, os.Stdout)

	db, err := database.Connect(ctx, s.Database)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if s.Redis.Enabled {
		rdb, err = cache.Connect(ctx, s.Redis)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}

	disk, err := storage.Open(ctx, s.Storage)
	if err != nil {
		closeAll(db, rdb)
		return nil, err
	}

	c, err := Wire(s, db, rdb, disk)
	if err != nil {
		closeAll(db, rdb)
		return nil, err
	}
	return c, nil
}

// Wire assembles services over already-open connections. rdb may be nil.
func Wire(s *config.Settings, db *gorm.DB, rdb *redis.Client, disk storage.Disk) (*Container, error) {
	tokens, err := auth.NewManager(s.Auth.JWTSecret, s.Auth.TokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("providers: token manager: %w", err)
	}

	q, err := newQueue(s.Queue, db, rdb)
	if err != nil {
		return nil, err
	}
	mailer := mail.New(s.Mail)
	jobs.Register(q, mailer)

	bus := event.New()
	users := repositories.NewUserRepository(db)
	listeners.Register(bus, users, q, s.App.Name)

	store := cache.New(rdb)
	bind.SetMaxBodyBytes(s.HTTP.MaxBodyBytes)

	return &Container{
		Settings: s,
		DB:       db,
		Redis:    rdb,
		Cache:    store,
		Queue:    q,
		Mailer:   mailer,
		Events:   bus,
		Disk:     disk,
		Tokens:   tokens,

		Auth:   services.NewAuthService(users, tokens, q, s.Auth, s.App.Name, nil),
		Orders: services.NewOrderService(db, bus, s.Orders),
		Catalog: services.NewCatalogService(repositories.NewProductRepository(db),
			repositories.NewCatalogRepository(db), store, s.Redis.CacheTTL, disk),
		Contact: services.NewContactService(q, s.App.Name),
	}, nil
}

func newQueue(s config.QueueSettings, db *gorm.DB, rdb *redis.Client) (*queue.Manager, error) {
	var driver queue.Driver
	switch strings.ToLower(s.Driver) {
	case "", "memory", "sync":
		driver = queue.NewMemoryDriver()
	case "redis":
		if rdb == nil {
			return nil, errors.New("providers: QUEUE_DRIVER=redis requires REDIS_ENABLED=true")
		}
		driver = queue.NewRedisDriver(rdb, s.Name)
	default:
		return nil, fmt.Errorf("providers: unknown queue driver %q", s.Driver)
	}

	return queue.New(driver,
		queue.WithMaxRetry(queueMaxRetry),
		queue.WithBackoff(queueBackoff),
		queue.WithFailedStore(queue.DBStore{DB: db}),
	), nil
}

// Application builds the HTTP application with every API route mounted.
func (c *Container) Application() *app.Application {
	return app.New(c.Settings).
		Routes(c.Routes).
		Health("database", c.pingDB).
		Health("redis", c.pingRedis).
		Static(c.Disk)
}

// Routes mounts the API on r.
func (c *Container) Routes(r *router.Router) {
	routes.RegisterAPI(r, c.Tokens, routes.Controllers{
		Auth:     controllers.NewAuthController(c.Auth),
		Orders:   controllers.NewOrderController(c.Orders),
		Products: controllers.NewProductController(c.Catalog, c.Settings.Storage.MaxUpload),
		Catalog:  controllers.NewCatalogController(c.Catalog),
		Contact:  controllers.NewContactController(c.Contact),
	})
}

// Scheduler returns the periodic maintenance tasks.
func (c *Container) Scheduler() *schedule.Scheduler {
	s := schedule.New()
	s.Every(10 * time.Minute).Name("auth:purge").WithoutOverlapping().Run(c.Auth.PurgeExpired)
	return s
}

// Close waits for in-flight event listeners and releases connections.
func (c *Container) Close() error {
	c.Events.Wait()

	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	errs = append(errs, database.Close(c.DB))
	return errors.Join(errs...)
}

func (c *Container) pingDB(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Container) pingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx).Err()
}

func closeAll(db *gorm.DB, rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = database.Close(db)
}
