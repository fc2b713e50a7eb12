package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/contentscore/internal/bootstrap"
	"anoa.com/contentscore/internal/config"
	"anoa.com/contentscore/internal/server"
	"anoa.com/contentscore/pkg/database"
	"anoa.com/contentscore/pkg/logger"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient == nil {
		log.Warn("REDIS_URL not set, using in-process locks without live notifications")
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	scheduler := srv.Scheduler()
	scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown")
	}
	scheduler.Stop(shutdownCtx)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("redis close")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
