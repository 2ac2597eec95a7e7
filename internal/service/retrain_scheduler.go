package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TrainingTrigger dispara una corrida a partir de una fuente de ejemplos.
type TrainingTrigger interface {
	TriggerTraining(ctx context.Context, src TrainingSource) (string, error)
}

// RetrainScheduler reentrena desde las correcciones segun una expresion cron de 5 campos
// (minuto hora dia-mes mes dia-semana).
type RetrainScheduler struct {
	expr     string
	schedule cron.Schedule
	trigger  TrainingTrigger
	clock    clockwork.Clock
	logger   *zap.Logger
}

func NewRetrainScheduler(expr string, trigger TrainingTrigger, clock clockwork.Clock, logger *zap.Logger) (*RetrainScheduler, error) {
	expr = strings.TrimSpace(expr)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid retrain schedule %q: %w", expr, err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RetrainScheduler{
		expr:     expr,
		schedule: sched,
		trigger:  trigger,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Start bloquea hasta que ctx se cancele; debe correr en su propia goroutine.
func (s *RetrainScheduler) Start(ctx context.Context) {
	s.logger.Info("retrain scheduled", zap.String("cron", s.expr))
	for {
		now := s.clock.Now()
		next := s.schedule.Next(now)
		s.logger.Debug("next retrain", zap.Time("at", next))

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
		}
		s.RunOnce(ctx)
	}
}

// RunOnce dispara un reentrenamiento desde correcciones. Sin datos o con una corrida en
// curso solo se registra.
func (s *RetrainScheduler) RunOnce(ctx context.Context) {
	runID, err := s.trigger.TriggerTraining(ctx, CorrectionSource{})
	switch {
	case err == nil:
		s.logger.Info("scheduled retrain started", zap.String("run_id", runID))
	case errors.Is(err, ErrNoTrainingData), errors.Is(err, ErrTrainingInProgress):
		s.logger.Info("scheduled retrain skipped", zap.Error(err))
	default:
		s.logger.Error("scheduled retrain failed", zap.Error(err))
	}
}
