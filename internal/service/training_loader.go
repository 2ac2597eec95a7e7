package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ulasan/internal/domain"
	"ulasan/internal/repository"
)

// MaxFileExamples limita los ejemplos tomados de un archivo (prefijo, no muestreo).
const MaxFileExamples = 500

// TrainingSource indica de donde salen los ejemplos supervisados.
type TrainingSource interface {
	Name() string
}

// FileSource es un CSV subido con columnas "text" y "label".
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

// CorrectionSource toma los registros del historial con correccion humana.
type CorrectionSource struct{}

func (CorrectionSource) Name() string { return "corrections" }

// TrainingDataLoader reune ejemplos y valida etiquetas sin coercion.
type TrainingDataLoader struct {
	analyses repository.AnalysisRepository
	logger   *zap.Logger
}

func NewTrainingDataLoader(analyses repository.AnalysisRepository, logger *zap.Logger) *TrainingDataLoader {
	return &TrainingDataLoader{analyses: analyses, logger: logger}
}

func (l *TrainingDataLoader) Load(ctx context.Context, src TrainingSource) ([]domain.TrainingExample, error) {
	switch s := src.(type) {
	case FileSource:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open training file: %w", err)
		}
		defer f.Close()
		return l.LoadCSV(f)
	case CorrectionSource:
		return l.loadCorrections(ctx)
	default:
		return nil, fmt.Errorf("unsupported training source %T", src)
	}
}

// LoadCSV exige las columnas "text" y "label" (nombres exactos) y toma como maximo
// MaxFileExamples filas.
func (l *TrainingDataLoader) LoadCSV(r io.Reader) ([]domain.TrainingExample, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrSchema, err)
	}

	textIdx, labelIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case "text":
			textIdx = i
		case "label":
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: missing required column %q", ErrSchema, "text")
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("%w: missing required column %q", ErrSchema, "label")
	}

	var examples []domain.TrainingExample
	// El tope se aplica antes de leer: filas mas alla del prefijo no se parsean.
	for row := 2; len(examples) < MaxFileExamples; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrSchema, row, err)
		}
		label, err := parseTrainingLabel(record[labelIdx], "row "+strconv.Itoa(row))
		if err != nil {
			return nil, err
		}
		examples = append(examples, domain.TrainingExample{Text: record[textIdx], Label: label})
	}

	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: file has no rows", ErrNoTrainingData)
	}
	if len(examples) == MaxFileExamples {
		l.logger.Warn("limiting training dataset", zap.Int("max_examples", MaxFileExamples))
	}
	l.logger.Info("training data loaded from file", zap.Int("examples", len(examples)))
	return examples, nil
}

func (l *TrainingDataLoader) loadCorrections(ctx context.Context) ([]domain.TrainingExample, error) {
	if l.analyses == nil {
		return nil, fmt.Errorf("%w: correction store not configured", ErrNoTrainingData)
	}
	records, err := l.analyses.ListCorrected(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corrected analyses: %w", err)
	}

	var examples []domain.TrainingExample
	for _, rec := range records {
		if rec.Correction == nil {
			continue
		}
		label, err := parseTrainingLabel(string(*rec.Correction), "analysis "+strconv.FormatInt(rec.ID, 10))
		if err != nil {
			return nil, err
		}
		examples = append(examples, domain.TrainingExample{Text: rec.Text, Label: label})
	}

	if len(examples) == 0 {
		l.logger.Warn("no corrected data found")
		return nil, ErrNoTrainingData
	}
	l.logger.Info("training data loaded from corrections", zap.Int("examples", len(examples)))
	return examples, nil
}

func parseTrainingLabel(raw, where string) (domain.SentimentLabel, error) {
	label := domain.SentimentLabel(strings.TrimSpace(raw))
	if !label.Valid() {
		return "", &InvalidLabelError{Value: raw, Where: where}
	}
	return label, nil
}
