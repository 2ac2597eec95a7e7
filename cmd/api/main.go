package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ulasan/internal/app"
	"ulasan/internal/config"
	apihttp "ulasan/internal/http"
	"ulasan/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// ctx vive hasta SIGINT/SIGTERM; es tambien el contexto de las corridas de entrenamiento.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	if cfg.RetrainSchedule != "" {
		scheduler, err := service.NewRetrainScheduler(cfg.RetrainSchedule, a.Service, nil, logger)
		if err != nil {
			logger.Warn("retrain scheduler disabled", zap.Error(err))
		} else {
			go scheduler.Start(ctx)
		}
	}

	if cfg.WatchCheckpoints {
		watcher, err := service.NewCheckpointWatcher(cfg.FineTunedDir, a.Models, nil, logger)
		if err != nil {
			logger.Warn("checkpoint watcher disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
			go watcher.Start(ctx)
		}
	}

	sentimentHandler := apihttp.NewSentimentHandler(logger, a.Service)
	trainingHandler := apihttp.NewTrainingHandler(logger, a.Service, cfg.UploadDir)
	router := apihttp.NewRouter(logger, sentimentHandler, trainingHandler, apihttp.RateLimit{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	cp, _, _ := a.Models.ActiveCheckpoint()
	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("checkpoint", cp.String()))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
