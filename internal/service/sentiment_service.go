package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/domain"
	"ulasan/internal/repository"
)

// Limites de texto para un analisis individual.
const (
	MinTextLength = 10
	MaxTextLength = 1000

	minBatchTextLength = 3
)

// TextAnalysis es el resultado completo de analizar un texto.
type TextAnalysis struct {
	AnalysisID *int64                  `json:"analysis_id,omitempty"`
	Prediction domain.PredictionResult `json:"prediction"`
	Aspects    []domain.AspectResult   `json:"aspects"`
	TextLength int                     `json:"text_length"`
	Timestamp  time.Time               `json:"timestamp"`
}

// BatchItem es una fila clasificada de un archivo.
type BatchItem struct {
	Row        int                   `json:"original_row"`
	Text       string                `json:"text"`
	Sentiment  domain.SentimentLabel `json:"sentiment"`
	Confidence float64               `json:"confidence"`
}

// BatchResult agrupa las filas clasificadas con un conteo por etiqueta.
type BatchResult struct {
	Results []BatchItem                   `json:"results"`
	Stats   map[domain.SentimentLabel]int `json:"stats"`
	Total   int                           `json:"total"`
}

// SentimentService es la fachada que consumen el router HTTP y los comandos.
type SentimentService struct {
	models    *ModelManager
	inference *InferenceService
	segmenter *AspectSegmenter
	loader    *TrainingDataLoader
	tuner     *FineTuner
	status    *TrainingStatusTracker
	analyses  repository.AnalysisRepository
	logger    *zap.Logger
}

func NewSentimentService(
	models *ModelManager,
	inference *InferenceService,
	segmenter *AspectSegmenter,
	loader *TrainingDataLoader,
	tuner *FineTuner,
	status *TrainingStatusTracker,
	analyses repository.AnalysisRepository,
	logger *zap.Logger,
) *SentimentService {
	return &SentimentService{
		models:    models,
		inference: inference,
		segmenter: segmenter,
		loader:    loader,
		tuner:     tuner,
		status:    status,
		analyses:  analyses,
		logger:    logger,
	}
}

func (s *SentimentService) Classify(ctx context.Context, text string) (domain.PredictionResult, error) {
	return s.inference.Predict(ctx, text)
}

func (s *SentimentService) ClassifyAspects(ctx context.Context, text string) ([]domain.AspectResult, error) {
	return s.segmenter.SegmentAndClassify(ctx, text)
}

// Analyze valida el texto, lo clasifica completo y por aspectos y lo guarda en el
// historial. Un fallo al guardar no hace fallar el analisis.
func (s *SentimentService) Analyze(ctx context.Context, text string) (TextAnalysis, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return TextAnalysis{}, fmt.Errorf("%w: text must not be empty", ErrInvalidInput)
	case n < MinTextLength:
		return TextAnalysis{}, fmt.Errorf("%w: text too short (minimum %d characters)", ErrInvalidInput, MinTextLength)
	case n > MaxTextLength:
		return TextAnalysis{}, fmt.Errorf("%w: text too long (maximum %d characters)", ErrInvalidInput, MaxTextLength)
	}

	pred, err := s.inference.Predict(ctx, text)
	if err != nil {
		return TextAnalysis{}, err
	}
	aspects, err := s.segmenter.SegmentAndClassify(ctx, text)
	if err != nil {
		return TextAnalysis{}, err
	}

	out := TextAnalysis{
		Prediction: pred,
		Aspects:    aspects,
		TextLength: n,
		Timestamp:  time.Now().UTC(),
	}
	if s.analyses != nil {
		record := domain.Analysis{
			Text:       text,
			Sentiment:  pred.Label,
			Confidence: pred.Confidence,
			CreatedAt:  out.Timestamp,
		}
		if err := s.analyses.Create(ctx, &record); err != nil {
			s.logger.Warn("failed to save analysis history", zap.Error(err))
		} else {
			out.AnalysisID = &record.ID
		}
	}
	return out, nil
}

// BatchClassify clasifica hasta MaxBatchRows filas; los textos de menos de 3 caracteres
// se saltan.
func (s *SentimentService) BatchClassify(ctx context.Context, filename string, r io.Reader) (BatchResult, error) {
	rows, err := ReadBatchTexts(filename, r)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{
		Results: make([]BatchItem, 0, len(rows)),
		Stats:   make(map[domain.SentimentLabel]int, len(domain.SentimentLabels)),
	}
	for _, l := range domain.SentimentLabels {
		result.Stats[l] = 0
	}
	for _, row := range rows {
		text := strings.TrimSpace(row.Text)
		if utf8.RuneCountInString(text) < minBatchTextLength {
			continue
		}
		pred, err := s.inference.Predict(ctx, text)
		if err != nil {
			return BatchResult{}, fmt.Errorf("row %d: %w", row.Row, err)
		}
		result.Results = append(result.Results, BatchItem{
			Row:        row.Row,
			Text:       text,
			Sentiment:  pred.Label,
			Confidence: pred.Confidence,
		})
		result.Stats[pred.Label]++
	}
	result.Total = len(result.Results)
	s.logger.Info("batch classified", zap.String("file", filename), zap.Int("total", result.Total))
	return result, nil
}

// SubmitFeedback guarda la correccion humana de un analisis previo.
func (s *SentimentService) SubmitFeedback(ctx context.Context, id int64, correction string) (domain.Analysis, error) {
	label := domain.SentimentLabel(strings.TrimSpace(correction))
	if !label.Valid() {
		return domain.Analysis{}, fmt.Errorf("%w: invalid correction label %q", ErrInvalidInput, correction)
	}
	if s.analyses == nil {
		return domain.Analysis{}, ErrAnalysisNotFound
	}

	if err := s.analyses.SetCorrection(ctx, id, label); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Analysis{}, ErrAnalysisNotFound
		}
		return domain.Analysis{}, fmt.Errorf("set correction: %w", err)
	}
	analysis, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("get analysis %d: %w", id, err)
	}
	s.logger.Info("feedback received", zap.Int64("analysis_id", id), zap.String("correction", string(label)))
	return analysis, nil
}

// TriggerTraining carga y valida los ejemplos en el llamador; solo la corrida va a segundo
// plano. Los errores de entrada se devuelven antes de que is_training pase a true.
func (s *SentimentService) TriggerTraining(ctx context.Context, src TrainingSource) (string, error) {
	examples, err := s.loader.Load(ctx, src)
	if err != nil {
		return "", err
	}
	runID, err := s.tuner.Trigger(ctx, examples)
	if err != nil {
		return "", err
	}
	s.logger.Info("training triggered", zap.String("run_id", runID), zap.String("source", src.Name()))
	return runID, nil
}

func (s *SentimentService) TrainingStatus() domain.TrainingStatus {
	return s.status.Snapshot()
}

func (s *SentimentService) ReloadModel(ctx context.Context) error {
	return s.models.Reload(ctx)
}

func (s *SentimentService) IsReady() bool {
	return s.models.IsReady()
}

func (s *SentimentService) ActiveCheckpoint() (classifier.Checkpoint, time.Time, bool) {
	return s.models.ActiveCheckpoint()
}
