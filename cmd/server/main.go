package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/offlinefirst/swr-cache/configs"
	"github.com/offlinefirst/swr-cache/internal/application/services"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
	infraDB "github.com/offlinefirst/swr-cache/internal/infrastructure/db"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/health"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/httpserver"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/memory"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/metrics"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/network"
	infraRedis "github.com/offlinefirst/swr-cache/internal/infrastructure/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting swr-cache management service...")

	// Select the persistent storage medium
	var (
		store          ports.KeyValueStore
		healthCheckers []ports.HealthChecker
	)
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		redisClient, err := infraRedis.Connect(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")
		store = infraRedis.NewStore(redisClient)
		healthCheckers = append(healthCheckers, health.NewRedisHealthChecker(redisClient))

	case config.BackendPostgres:
		database, err := infraDB.Connect(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database:", err)
		}
		defer database.Close()
		logger.Info("Connected to database successfully")

		if err := database.Migrate("./migrations"); err != nil {
			logger.Warn("Failed to run migrations:", err)
		}
		store = infraDB.NewKVStore(database)
		healthCheckers = append(healthCheckers, health.NewDBHealthChecker(database))

	default:
		logger.Warn("Using in-memory storage; cache entries will not survive restarts")
		store = memory.NewStore()
	}

	// Cache behavior metrics
	cacheMetrics := metrics.NewCacheMetrics(prometheus.DefaultRegisterer)

	entryStore := services.NewEntryStore(store, logger, services.WithStoreMetrics(cacheMetrics))
	maintenance := services.NewMaintenanceService(entryStore, logger, cacheMetrics)

	// Network signal: a dial probe when enabled, otherwise a manual monitor
	// that callers of the library drive themselves.
	if cfg.Network.ProbeEnabled {
		probe := network.NewProbeMonitor(cfg.Network.ProbeAddress, cfg.Network.ProbeInterval, cfg.Network.ProbeTimeout, logger)
		probe.Start()
		defer probe.Stop()
		logger.WithField("probe_address", cfg.Network.ProbeAddress).Info("Connectivity probe started")
	}

	serverConfig := &httpserver.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		HealthTimeout: cfg.Server.HealthTimeout,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		Maintenance:    maintenance,
		HealthCheckers: healthCheckers,
		Backend:        cfg.Storage.Backend,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
