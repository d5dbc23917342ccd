package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftlist-api/internal/cache"
	"giftlist-api/internal/config"
	"giftlist-api/internal/handler"
	"giftlist-api/internal/hub"
	"giftlist-api/internal/middleware"
	"giftlist-api/internal/repository"
	"giftlist-api/internal/router"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/logger"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	format := cfg.App.LogFormat
	if cfg.App.IsProduction() {
		format = "json"
	}
	log := logger.New(cfg.App.LogLevel, format)
	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	}).Infof("Starting %s", cfg.App.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.Open(ctx, cfg.Database, log)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize store")
	}

	c := openCache(cfg.Cache, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Live gateway
	live := hub.New(cfg.Live, reg, log)

	// Initialize services
	views := service.NewListViews(store, c, cfg.Cache.TTL, log)
	tokens := service.NewTokenService(c, cfg.Auth.TokenTTL, log)
	authService := service.NewAuthService(store, tokens, cfg.Auth.BcryptCost, log)
	itemService := service.NewItemService(store, views, live, log)
	categoryService := service.NewCategoryService(store, views, live, log)
	listService := service.NewListService(store, views, live, log)

	checks := map[string]handler.Pinger{"database": store}
	if p, ok := c.(handler.Pinger); ok {
		checks["cache"] = p
	}

	r := router.New(router.Config{
		Handler:         handler.New(cfg.App.Name, cfg.App.Version, checks, live),
		AuthHandler:     handler.NewAuthHandler(authService, log),
		ListHandler:     handler.NewListHandler(listService, log),
		CategoryHandler: handler.NewCategoryHandler(categoryService, log),
		ItemHandler:     handler.NewItemHandler(itemService, log),
		LiveHandler:     handler.NewLiveHandler(live, cfg.Live.AllowedOrigins, log),
		AdminHandler:    handler.NewAdminHandler(live, cfg.Database.Type, cacheType(c)),
		AuthMiddleware:  middleware.RequireOwner(authService),
		AdminKey:        cfg.App.LoginKey,
		Metrics:         reg,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Logger:          log,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	// Hijacked websocket connections are not tracked by srv.Shutdown.
	live.Shutdown()
	if err := c.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := store.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		log.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func cacheType(c cache.Cache) string {
	if _, ok := c.(*cache.RedisCache); ok {
		return "redis"
	}
	return "memory"
}

// openCache returns the Redis cache when configured and reachable, and the
// in-process cache otherwise.
func openCache(cfg config.CacheConfig, log logrus.FieldLogger) cache.Cache {
	if cfg.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err == nil {
			log.WithField("addr", cfg.RedisAddress()).Info("Redis cache initialized")
			return rc
		}
		log.WithError(err).Warn("Redis unavailable, falling back to memory cache")
	}
	return cache.NewMemoryCache(time.Minute)
}
