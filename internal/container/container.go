package container

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"productview/catalog/internal/api"
	"productview/catalog/internal/cache"
	"productview/catalog/internal/catalog"
	"productview/catalog/internal/client"
	"productview/catalog/internal/config"
	"productview/catalog/internal/repository"
	"productview/catalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Client     client.CatalogClient
	Repository repository.ProductRepository
	PageCache  cache.PageCache

	Service *service.Service
	Server  *api.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	loader, err := container.newLoader(ctx)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Catalog = catalog.New(loader)

	var serverOpts []api.Option
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		container.PageCache = cache.NewRedisPageCache(rdb, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.CacheTTL)*time.Second)
		serverOpts = append(serverOpts, api.WithRateLimit(rdb, cfg.Redis))
	} else {
		container.PageCache = cache.NewMemoryPageCache(time.Duration(cfg.Redis.CacheTTL)*time.Second, cfg.Redis.CacheMaxEntries)
	}

	container.Service = service.NewService(container.Catalog, container.PageCache, cfg.Query.Defaults())

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	container.Server = api.NewServer(cfg.Server, container.Service, serverOpts...)

	return container, nil
}

func (c *Container) newLoader(ctx context.Context) (catalog.Loader, error) {
	cfg := c.Config

	switch cfg.Catalog.Source {
	case config.SourceFile:
		log.Infof("📦 Reading catalog from %s", cfg.Catalog.Path)
		html := client.HTMLDecoder("")
		return catalog.NewFileLoader(cfg.Catalog.Path,
			catalog.WithDecoder(".html", html),
			catalog.WithDecoder(".htm", html),
		), nil

	case config.SourceHTTP:
		log.Infof("🌐 Reading catalog from %s", cfg.Upstream.BaseURL)
		var opts []client.ClientOption
		if len(cfg.Upstream.Proxies) > 0 {
			pool := client.NewProxyPool(ctx, cfg.Upstream.Proxies, client.HealthURL(cfg.Upstream))
			opts = append(opts, client.WithProxyPool(pool))
		}
		c.Client = client.NewCatalogClient(cfg.Upstream, opts...)
		return catalog.LoaderFunc(c.Client.ListProducts), nil

	case config.SourcePostgres:
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		c.db = db
		log.Infof("🐘 Reading catalog from postgres %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

		c.Repository = repository.NewProductRepository(db)
		return catalog.LoaderFunc(c.Repository.ListProducts), nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// Run loads the catalog and serves the API until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// A failed warm-up is not fatal; requests retry the load.
	g.Go(func() error {
		if _, err := c.Catalog.Len(ctx); err != nil {
			log.Warnf("⚠️ Catalog warm-up failed: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		return c.Server.Run(ctx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Client != nil {
		if err := c.Client.Close(); err != nil {
			log.Warnf("Failed to close catalog client: %v", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			log.Warnf("Failed to close Redis client: %v", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
