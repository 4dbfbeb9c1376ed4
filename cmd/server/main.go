package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/config"
	"github.com/segyhp/lending-fund/internal/handler"
	"github.com/segyhp/lending-fund/internal/logger"
	"github.com/segyhp/lending-fund/internal/migration"
	"github.com/segyhp/lending-fund/internal/repository"
	"github.com/segyhp/lending-fund/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := migration.New(db.DB, log)
		if err != nil {
			log.Fatal("Failed to prepare migrations", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	store := repository.NewStore(db)
	checks := map[string]handler.Pinger{"database": store}

	opts := []service.Option{
		service.WithInterestRate(cfg.GetInterestPerInstallment()),
		service.WithLocation(cfg.GetLocation()),
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.CacheBackend == config.CacheBackendRedis {
		redisClient = initRedis(cfg)
		defer redisClient.Close()
	}

	if ledgerCache := initCache(cfg, redisClient, log); ledgerCache != nil {
		opts = append(opts, service.WithCache(ledgerCache))
		checks["cache"] = ledgerCache
	}

	ledgerService := service.NewLedgerService(store, log, opts...)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, log)
	healthHandler := handler.NewHealthHandler(cfg.Health.Timeout, checks)

	router := handler.SetupRoutes(ledgerHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// initCache returns nil when caching is disabled or Redis is unreachable at
// startup; the ledger then reads straight from the database.
func initCache(cfg *config.Config, client *redis.Client, log *zap.Logger) cache.Cache {
	if cfg.Redis.CacheTTL == 0 {
		log.Info("Cache disabled")
		return nil
	}

	if cfg.Redis.CacheBackend == config.CacheBackendMemory {
		log.Info("Using in-process cache", zap.Duration("ttl", cfg.Redis.CacheTTL))
		return cache.NewMemoryCache(cfg.Redis.CacheTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Health.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, running without cache", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		return nil
	}

	return cache.NewRedisCache(client, cfg.Redis.CacheTTL, log)
}
