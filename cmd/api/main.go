package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"selfiebooth/internal/archive"
	"selfiebooth/internal/config"
	"selfiebooth/internal/database"
	"selfiebooth/internal/handlers"
	"selfiebooth/internal/jobs"
	"selfiebooth/internal/kiosk"
	"selfiebooth/internal/log"
	"selfiebooth/internal/messaging"
	"selfiebooth/internal/ratelimit"
	"selfiebooth/internal/repository"
	"selfiebooth/internal/server"
	"selfiebooth/internal/service"
	"selfiebooth/internal/stats"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Resolve()).Msg("failed to connect database")
	}

	var limiter ratelimit.Limiter
	var redisLimiter *ratelimit.RedisLimiter
	if cfg.Redis.Addr != "" {
		redisLimiter, err = ratelimit.NewRedisLimiter(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		limiter = redisLimiter
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiting via redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter()
	}

	sender, err := messaging.New(cfg.Messaging, cfg.Booth.PhotosDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init messaging")
	}
	logger.Info().Str("service", sender.Name()).Msg("messaging service ready")

	var store *archive.ObjectStore
	if cfg.Archive.Enabled {
		store, err = archive.New(cfg.Archive)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init photo archive")
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure archive bucket failed")
		}
	}

	counters := stats.NewCounters(cfg.Booth.StatsFile, logger)
	history, err := stats.NewHistory(cfg.Booth.HistoryFile, cfg.Booth.ImagesDir, cfg.Booth.HistoryLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init session history")
	}

	kiosks, err := kiosk.NewRegistry(cfg.Booth.KioskFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init kiosk registry")
	}

	sessions := repository.NewSessionRepository(db)
	booth := service.NewBoothService(sessions, counters, history, sender, store, cfg, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, booth, kiosks, limiter, db, sender.Name())
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(booth, logger)
	if err := scheduler.Start(cfg.Booth.SweepInterval); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, db, redisLimiter)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *sql.DB, redisLimiter *ratelimit.RedisLimiter) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	scheduler.Stop()

	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("database close error")
	}
	if redisLimiter != nil {
		if err := redisLimiter.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
