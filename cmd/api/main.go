package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/config"
	httpHandler "github.com/yokitheyo/imageresizer/internal/handler/http"
	"github.com/yokitheyo/imageresizer/internal/handler/middleware"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/processor"
	"github.com/yokitheyo/imageresizer/internal/infrastructure/storage"
	"github.com/yokitheyo/imageresizer/internal/usecase"
	"github.com/yokitheyo/imageresizer/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Resizer API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.ValidateServer(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid server config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		zlog.Logger.Warn().Err(err).Str("level", cfg.Logging.Level).Msg("unknown log level, keeping default")
	}
	zlog.Logger.Info().
		Int("max_upload_size_mb", cfg.Server.MaxUploadSizeMB).
		Msg("Loaded server config")

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

	// Gin engine + middleware
	engine := ginext.New("release")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	httpHandler.RegisterSystemRoutes(engine)
	resizeHandler := httpHandler.NewResizeHandler(
		resizeWorker,
		store,
		cfg.ResizeConfig(),
		cfg.Store.Extension,
		cfg.Server.MaxUploadSizeMB,
	)
	resizeHandler.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	resizeWorker.Wait()
	if err := store.Flush(); err != nil {
		zlog.Logger.Error().Err(err).Msg("artifact flush failed")
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
