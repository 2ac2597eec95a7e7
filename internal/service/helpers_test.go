package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/domain"
	"ulasan/internal/repository"
)

type mockAnalysisRepo struct {
	mu      sync.Mutex
	records []domain.Analysis
	nextID  int64
	listErr error
}

func (m *mockAnalysisRepo) Create(_ context.Context, analysis *domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	analysis.ID = m.nextID
	m.records = append(m.records, *analysis)
	return nil
}

func (m *mockAnalysisRepo) GetByID(_ context.Context, id int64) (domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Analysis{}, repository.ErrNotFound
}

func (m *mockAnalysisRepo) SetCorrection(_ context.Context, id int64, correction domain.SentimentLabel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			c := correction
			m.records[i].Correction = &c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockAnalysisRepo) ListCorrected(_ context.Context) ([]domain.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Analysis
	for _, r := range m.records {
		if r.Correction != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func labelPtr(l domain.SentimentLabel) *domain.SentimentLabel { return &l }

var testBase = classifier.Checkpoint{Kind: classifier.KindBase}

// newMockManager arma un ModelManager sobre un MockLoader con sesiones base y fine-tuned.
func newMockManager(t *testing.T, fineTunedDir string) (*ModelManager, *classifier.MockLoader) {
	t.Helper()
	loader := &classifier.MockLoader{
		Sessions: map[classifier.CheckpointKind]classifier.Session{
			classifier.KindBase:      &classifier.MockSession{Label: "positive", Score: 0.8, CP: testBase},
			classifier.KindFineTuned: &classifier.MockSession{Label: "negative", Score: 0.7, CP: classifier.Checkpoint{Kind: classifier.KindFineTuned, Path: fineTunedDir}},
		},
		Errs: map[classifier.CheckpointKind]error{},
	}
	return NewModelManager(loader, testBase, fineTunedDir, zap.NewNop()), loader
}

func writeCheckpointMarker(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model.msgpack"), []byte(content), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
}

type stubPredictor struct {
	mu    sync.Mutex
	seen  []string
	label domain.SentimentLabel
	err   error
}

func (s *stubPredictor) Predict(_ context.Context, text string) (domain.PredictionResult, error) {
	s.mu.Lock()
	s.seen = append(s.seen, text)
	s.mu.Unlock()
	if s.err != nil {
		return domain.PredictionResult{}, s.err
	}
	label := s.label
	if label == "" {
		label = domain.SentimentNeutral
	}
	return domain.PredictionResult{Label: label, Confidence: 0.5}, nil
}
