package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"ulasan/internal/domain"
	"ulasan/internal/metrics"
)

// MaxInputChars es el prefiltro barato antes de tokenizar; el limite de tokens de la
// sesion es el que manda.
const MaxInputChars = 1500

// InferenceService clasifica un tramo de texto contra la sesion activa.
type InferenceService struct {
	models SessionProvider
	mapper LabelMapper
	logger *zap.Logger
}

func NewInferenceService(models SessionProvider, mapper LabelMapper, logger *zap.Logger) *InferenceService {
	return &InferenceService{
		models: models,
		mapper: mapper,
		logger: logger,
	}
}

// Predict nunca sustituye una etiqueta por defecto: cualquier fallo del backend o etiqueta
// desconocida se devuelve como ErrInferenceFailed.
func (s *InferenceService) Predict(ctx context.Context, text string) (domain.PredictionResult, error) {
	session, err := s.models.Active()
	if err != nil {
		return domain.PredictionResult{}, err
	}

	start := time.Now()
	raw, err := session.Classify(ctx, truncateChars(text, MaxInputChars))
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InferenceErrorsTotal.WithLabelValues("backend").Inc()
		return domain.PredictionResult{}, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	label, err := s.mapper.Map(raw.Label)
	if err != nil {
		metrics.InferenceErrorsTotal.WithLabelValues("unknown_label").Inc()
		s.logger.Error("classifier returned unknown label",
			zap.String("label", raw.Label),
			zap.String("checkpoint", session.Checkpoint().String()),
		)
		return domain.PredictionResult{}, fmt.Errorf("%w: %w", ErrInferenceFailed, err)
	}

	if math.IsNaN(raw.Score) || raw.Score < 0 || raw.Score > 1 {
		metrics.InferenceErrorsTotal.WithLabelValues("confidence_range").Inc()
		return domain.PredictionResult{}, fmt.Errorf("%w: confidence %v outside [0,1]", ErrInferenceFailed, raw.Score)
	}

	metrics.PredictionsTotal.WithLabelValues(string(label)).Inc()
	return domain.PredictionResult{Label: label, Confidence: raw.Score}, nil
}

func truncateChars(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
