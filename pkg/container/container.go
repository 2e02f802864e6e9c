package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"flashsale-backend/internal/config"
	holdHandler "flashsale-backend/internal/domains/hold/handler"
	holdRepo "flashsale-backend/internal/domains/hold/repository"
	holdService "flashsale-backend/internal/domains/hold/service"
	orderHandler "flashsale-backend/internal/domains/order/handler"
	orderRepo "flashsale-backend/internal/domains/order/repository"
	orderService "flashsale-backend/internal/domains/order/service"
	productHandler "flashsale-backend/internal/domains/product/handler"
	productRepo "flashsale-backend/internal/domains/product/repository"
	productService "flashsale-backend/internal/domains/product/service"
	webhookHandler "flashsale-backend/internal/domains/webhook/handler"
	webhookRepo "flashsale-backend/internal/domains/webhook/repository"
	webhookService "flashsale-backend/internal/domains/webhook/service"
	infraCache "flashsale-backend/internal/infrastructure/cache"
	"flashsale-backend/internal/infrastructure/database"
	"flashsale-backend/internal/infrastructure/lock"
	"flashsale-backend/internal/infrastructure/queue"
	"flashsale-backend/pkg/logger"
)

// Container holds every dependency of the application, wired once at
// startup. Initialization order matters: config, then infrastructure,
// then repositories, services, handlers.
type Container struct {
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       *infraCache.RedisCache
	Locker      lock.Locker
	QueueClient *asynq.Client

	ProductRepo productRepo.RepositoryInterface
	HoldRepo    holdRepo.RepositoryInterface
	OrderRepo   orderRepo.RepositoryInterface
	WebhookRepo webhookRepo.RepositoryInterface

	ProductService productService.ServiceInterface
	HoldService    holdService.ServiceInterface
	OrderService   orderService.ServiceInterface
	WebhookService webhookService.ServiceInterface

	ProductHandler *productHandler.Handler
	HoldHandler    *holdHandler.Handler
	OrderHandler   *orderHandler.Handler
	WebhookHandler *webhookHandler.Handler
}

// NewContainer builds the full dependency graph.
func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("config loaded", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRedis()
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("container initialized", nil)
	return c, nil
}

func (c *Container) initDatabase() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	logger.Info("database connected", nil)
	return nil
}

// initRedis connects the cache, the advisory locker and the task queue
// client, all sharing one Redis instance. A failed ping is not fatal:
// the counter cache degrades to recomputation and lock acquisition
// errors surface per request.
func (c *Container) initRedis() {
	cfg := c.Config.Redis

	c.Cache = infraCache.NewRedisCache(cfg.Host, cfg.Password, cfg.DB)
	if err := c.Cache.Connect(context.Background()); err != nil {
		logger.Warn("redis connection failed", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("redis connected", nil)
	}

	c.Locker = lock.NewRedisLocker(c.Cache.Client())
	c.QueueClient = queue.NewClient(cfg.Host, cfg.Password, cfg.DB)
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.ProductRepo = productRepo.NewProductRepository(pool)
	c.HoldRepo = holdRepo.NewHoldRepository(pool)
	c.OrderRepo = orderRepo.NewOrderRepository(pool)
	c.WebhookRepo = webhookRepo.NewWebhookRepository(pool)
}

func (c *Container) initServices() {
	pool := c.DB.Pool
	checkout := c.Config.Checkout

	c.ProductService = productService.NewService(c.ProductRepo, c.Cache, checkout.CacheTTL)
	c.HoldService = holdService.NewService(pool, c.HoldRepo, c.ProductRepo, c.ProductService, c.Locker, checkout)
	c.OrderService = orderService.NewService(pool, c.OrderRepo, c.HoldRepo, c.ProductRepo)
	c.WebhookService = webhookService.NewService(pool, c.WebhookRepo, c.OrderRepo, c.OrderService, c.HoldService, c.QueueClient)
}

func (c *Container) initHandlers() {
	c.ProductHandler = productHandler.NewHandler(c.ProductService)
	c.HoldHandler = holdHandler.NewHandler(c.HoldService)
	c.OrderHandler = orderHandler.NewHandler(c.OrderService, c.WebhookService)
	c.WebhookHandler = webhookHandler.NewHandler(c.WebhookService)
}

// Cleanup releases held connections. Called on graceful shutdown.
func (c *Container) Cleanup() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warn("failed to close queue client", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.Warn("failed to close redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	logger.Info("container cleanup completed", nil)
}
