package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/bootstrap"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/config"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/internal/server"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/database"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/logger"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		zapLogger.Fatal("database connection failed", zap.Error(err))
	}

	if err := bootstrap.Migrate(db); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		zapLogger.Fatal("failed to seed roles", zap.Error(err))
	}
	if err := bootstrap.SeedAdminUser(db, cfg, zapLogger); err != nil {
		zapLogger.Fatal("failed to seed admin user", zap.Error(err))
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		// Messaging still works without redis, only push and rate limiting are lost.
		zapLogger.Warn("redis unavailable, running in polling-only mode", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		zapLogger.Fatal("failed to register metrics", zap.Error(err))
	}

	srv := server.NewServer(cfg, db, redisClient, zapLogger)
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		zapLogger.Fatal("server exited with error", zap.Error(err))
	}
}
