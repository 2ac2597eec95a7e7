// Package app arma los componentes compartidos por el servidor y los comandos.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/config"
	"ulasan/internal/db"
	"ulasan/internal/repository"
	"ulasan/internal/service"
)

// App agrupa el grafo de dependencias ya construido.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Analyses  repository.AnalysisRepository
	Models    *service.ModelManager
	Inference *service.InferenceService
	Segmenter *service.AspectSegmenter
	Status    *service.TrainingStatusTracker
	Tuner     *service.FineTuner
	Loader    *service.TrainingDataLoader
	Service   *service.SentimentService

	closers []func()
}

// New construye el grafo y carga el modelo activo. baseCtx es el contexto de vida del
// proceso: las corridas de fine-tuning solo se cancelan cuando termina.
func New(ctx, baseCtx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	analyses, err := a.openAnalyses(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open analysis store: %w", err)
	}
	a.Analyses = analyses

	taxonomy, err := service.LoadAspectTaxonomy(cfg.AspectsFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	base := classifier.Checkpoint{Kind: classifier.KindBase, Path: cfg.BaseModelDir}
	loader := classifier.NewLocalLoader(logger)
	a.Models = service.NewModelManager(loader, base, cfg.FineTunedDir, logger)
	if err := a.Models.Initialize(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Inference = service.NewInferenceService(a.Models, service.NewLabelMapper(), logger)
	a.Segmenter = service.NewAspectSegmenter(a.Inference, taxonomy, cfg.InferenceParallelism, logger)
	a.Status = service.NewTrainingStatusTracker(nil)
	trainer := classifier.NewLocalTrainer(loader, logger)
	a.Tuner = service.NewFineTuner(baseCtx, trainer, base, cfg.FineTunedDir, a.Models, a.Status, a.trainingLock(ctx), cfg.TrainingSeed, logger)
	a.Loader = service.NewTrainingDataLoader(a.Analyses, logger)
	a.Service = service.NewSentimentService(a.Models, a.Inference, a.Segmenter, a.Loader, a.Tuner, a.Status, a.Analyses, logger)
	return a, nil
}

func (a *App) openAnalyses(ctx context.Context) (repository.AnalysisRepository, error) {
	if db.IsSQLite(a.Config.DatabaseURL) {
		conn, err := db.OpenSQLite(a.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { conn.Close() })
		return repository.NewSQLiteAnalysisRepository(conn), nil
	}

	pool, err := db.NewPool(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	if err := db.Ping(ctx, pool); err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		return nil, err
	}
	return repository.NewPgAnalysisRepository(pool), nil
}

// trainingLock usa Redis cuando esta configurado y responde; si no, un lock local.
func (a *App) trainingLock(ctx context.Context) service.TrainingLock {
	if a.Config.RedisAddr == "" {
		return service.NewLocalTrainingLock()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		a.Logger.Warn("redis ping failed, using local training lock", zap.Error(err))
		client.Close()
		return service.NewLocalTrainingLock()
	}
	a.closers = append(a.closers, func() { client.Close() })
	return service.NewRedisTrainingLock(client, 2*time.Hour, a.Logger)
}

// Close espera la corrida en curso y libera conexiones en orden inverso.
func (a *App) Close() {
	if a.Tuner != nil {
		a.Tuner.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
