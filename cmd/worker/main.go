package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/config"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/kafka"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/processor"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/storage"
	"github.com/yokitheyo/imageresizer/internal/usecase"
	"github.com/yokitheyo/imageresizer/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Resizer Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "/app/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.ValidateKafka(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid kafka config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Artifact store
	store, err := storage.New(&cfg.Store)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize artifact store")
	}

	// Image processor + resizer
	imageProcessor, err := processor.NewImageProcessor(&cfg.Processing, cfg.Store.Extension)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize image processor")
	}
	resizer := usecase.NewImageResizer(imageProcessor, store)
	resizeWorker := worker.NewResizeWorker(resizer, cfg.Processing.MaxConcurrent)

	// Kafka producer for outcomes
	kafkaProducer := kafka.NewProducer(&cfg.Kafka, cfg.Store.Extension)
	defer kafkaProducer.Close()

	taskHandler := worker.NewTaskHandler(resizeWorker, kafkaProducer, cfg.ResizeConfig())

	// Kafka consumer for tasks
	kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, taskHandler.HandleResizeTask)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer kafkaConsumer.Close()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	select {
	case <-consumerDone:
	case <-time.After(30 * time.Second):
		zlog.Logger.Warn().Msg("Kafka consumer did not stop in time")
	}
	resizeWorker.Wait()

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
