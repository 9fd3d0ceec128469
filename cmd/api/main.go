package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profilehost/api/internal/cache"
	"profilehost/api/internal/config"
	"profilehost/api/internal/database"
	"profilehost/api/internal/handlers"
	"profilehost/api/internal/jobs"
	"profilehost/api/internal/log"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/server"
	"profilehost/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	client, db, err := database.NewMongoDatabase(ctx, cfg.Mongo)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo connection failed")
	}

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	err = database.EnsureIndexes(ctx, db)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("index creation failed")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("blob store init failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, client, db, redisClient, blobs, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, logger)
	if err := scheduler.Start(cfg.Jobs.SweepSchedule); err != nil {
		logger.Fatal().Err(err).Msg("scheduler start failed")
	}

	cleaner := jobs.NewCleaner(redisClient, repository.NewImageRepository(db), blobs, cfg.Jobs.OrphanRetention, logger)
	cleanerCtx, stopCleaner := context.WithCancel(context.Background())
	go func() {
		if err := cleaner.Start(cleanerCtx); err != nil && cleanerCtx.Err() == nil {
			logger.Error().Err(err).Msg("cleaner stopped")
		}
	}()

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	scheduler.Stop()
	stopCleaner()

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error().Err(err).Msg("mongo disconnect failed")
	}

	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close failed")
	}

	logger.Info().Msg("shutdown complete")
}

func newBlobStore(cfg *config.AppConfig) (storage.BlobStore, error) {
	if cfg.Storage.Backend == "s3" {
		store, err := storage.NewObjectStore(storage.ObjectStoreConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return storage.NewFileStore(cfg.Storage.Root)
}
