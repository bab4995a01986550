// Package api serves the catalog over HTTP: the full product list, discrete
// filtered pages and the category list.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"productview/catalog/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP front of the catalog.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*options)

type options struct {
	redis    *redis.Client
	redisCfg config.RedisConfig
	registry *prometheus.Registry
}

// WithRateLimit enables the Redis backed rate limiter.
func WithRateLimit(rdb *redis.Client, cfg config.RedisConfig) Option {
	return func(o *options) {
		o.redis = rdb
		o.redisCfg = cfg
	}
}

// WithRegistry exposes metrics from reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// NewServer wires routes and middleware.
func NewServer(cfg config.ServerConfig, svc CatalogService, opts ...Option) *Server {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), requestID(), accessLog(), cors.New(corsConfig(cfg.AllowedOrigins)))
	router.Use(newMetrics(o.registry).middleware())
	router.NoRoute(notFound)
	router.NoMethod(methodNotAllowed)

	h := &handler{svc: svc}

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", h.health)

	limited := apiGroup.Group("")
	if o.redis != nil && o.redisCfg.RateLimit > 0 {
		window := time.Duration(o.redisCfg.RateWindow) * time.Second
		limited.Use(rateLimiter(o.redis, o.redisCfg.KeyPrefix, o.redisCfg.RateLimit, window))
	}
	limited.GET("/products", h.listProducts)
	limited.GET("/products-filter", h.filterProducts)
	limited.GET("/categories", h.listCategories)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})))

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 Catalog API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("🛑 Shutting down catalog API...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
