package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/domain"
)

type serviceFixture struct {
	svc     *SentimentService
	repo    *mockAnalysisRepo
	status  *TrainingStatusTracker
	tuner   *FineTuner
	trainer *classifier.MockTrainer
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	target := filepath.Join(t.TempDir(), "fine_tuned_model")
	manager, _ := newMockManager(t, target)
	if err := manager.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	repo := &mockAnalysisRepo{}
	inference := NewInferenceService(manager, NewLabelMapper(), zap.NewNop())
	taxonomy, err := LoadAspectTaxonomy("")
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	segmenter := NewAspectSegmenter(inference, taxonomy, 2, zap.NewNop())
	status := NewTrainingStatusTracker(clockwork.NewFakeClock())
	trainer := &classifier.MockTrainer{}
	tuner := NewFineTuner(context.Background(), trainer, testBase, target, manager, status, nil, 1, zap.NewNop())
	loader := NewTrainingDataLoader(repo, zap.NewNop())
	svc := NewSentimentService(manager, inference, segmenter, loader, tuner, status, repo, zap.NewNop())
	return serviceFixture{svc: svc, repo: repo, status: status, tuner: tuner, trainer: trainer}
}

func TestAnalyzeValidation(t *testing.T) {
	f := newServiceFixture(t)
	for _, text := range []string{"", "   ", "terlalu", strings.Repeat("a", MaxTextLength+1)} {
		if _, err := f.svc.Analyze(context.Background(), text); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Analyze(%d chars) expected ErrInvalidInput, got %v", len(text), err)
		}
	}
	if len(f.repo.records) != 0 {
		t.Fatalf("invalid input must not be stored")
	}
}

func TestAnalyzeStoresHistory(t *testing.T) {
	f := newServiceFixture(t)
	got, err := f.svc.Analyze(context.Background(), "  Makanannya enak, tapi harganya mahal.  ")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Prediction.Label != domain.SentimentPositive || got.TextLength != len("Makanannya enak, tapi harganya mahal.") {
		t.Fatalf("unexpected analysis %+v", got)
	}
	if len(got.Aspects) != 2 || got.Aspects[0].Aspect != domain.AspectFood || got.Aspects[1].Aspect != domain.AspectPrice {
		t.Fatalf("unexpected aspects %+v", got.Aspects)
	}
	if got.AnalysisID == nil || *got.AnalysisID != 1 || f.repo.records[0].Sentiment != domain.SentimentPositive {
		t.Fatalf("analysis not stored: %+v", f.repo.records)
	}
}

func TestBatchClassify(t *testing.T) {
	f := newServiceFixture(t)
	csvData := "id,Review\n1,makanannya enak\n2,ok\n3,tempatnya nyaman\n"
	got, err := f.svc.BatchClassify(context.Background(), "reviews.csv", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if got.Total != 2 || got.Results[0].Row != 0 || got.Results[1].Row != 2 || got.Results[1].Text != "tempatnya nyaman" {
		t.Fatalf("unexpected batch %+v", got)
	}
	if got.Stats[domain.SentimentPositive] != 2 || got.Stats[domain.SentimentNegative] != 0 {
		t.Fatalf("unexpected stats %+v", got.Stats)
	}

	if _, err := f.svc.BatchClassify(context.Background(), "reviews.xlsx", strings.NewReader("")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unsupported file, got %v", err)
	}
}

func TestReadBatchTexts(t *testing.T) {
	t.Run("falls back to first column", func(t *testing.T) {
		rows, err := ReadBatchTexts("x.csv", strings.NewReader("kolom,skor\nhalo semua,1\n"))
		if err != nil || len(rows) != 1 || rows[0].Text != "halo semua" {
			t.Fatalf("unexpected rows %+v err=%v", rows, err)
		}
	})

	t.Run("txt caps rows", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < MaxBatchRows+10; i++ {
			fmt.Fprintf(&b, "baris %d\n", i)
		}
		rows, err := ReadBatchTexts("x.TXT", strings.NewReader(b.String()))
		if err != nil || len(rows) != MaxBatchRows {
			t.Fatalf("expected %d rows, got %d err=%v", MaxBatchRows, len(rows), err)
		}
	})

	t.Run("prefers known column", func(t *testing.T) {
		rows, err := ReadBatchTexts("x.csv", strings.NewReader("id,komentar\n9,pedas sekali\n"))
		if err != nil || rows[0].Text != "pedas sekali" {
			t.Fatalf("unexpected rows %+v err=%v", rows, err)
		}
	})
}

func TestSubmitFeedback(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.records = []domain.Analysis{{ID: 4, Text: "lumayan", Sentiment: domain.SentimentPositive}}
	f.repo.nextID = 4

	if _, err := f.svc.SubmitFeedback(context.Background(), 4, "Positif"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.SubmitFeedback(context.Background(), 99, "Neutral"); !errors.Is(err, ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
	got, err := f.svc.SubmitFeedback(context.Background(), 4, "Neutral")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if got.Correction == nil || *got.Correction != domain.SentimentNeutral {
		t.Fatalf("correction not stored: %+v", got)
	}
}

func TestTriggerTrainingWithoutCorrections(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.records = []domain.Analysis{{ID: 1, Text: "enak", Sentiment: domain.SentimentPositive}}

	if _, err := f.svc.TriggerTraining(context.Background(), CorrectionSource{}); !errors.Is(err, ErrNoTrainingData) {
		t.Fatalf("expected ErrNoTrainingData, got %v", err)
	}
	if s := f.svc.TrainingStatus(); s.IsTraining {
		t.Fatalf("is_training must stay false, got %+v", s)
	}
}

func TestTriggerTrainingSchemaErrorBeforeStart(t *testing.T) {
	f := newServiceFixture(t)
	path := filepath.Join(t.TempDir(), "training_data.csv")
	if err := os.WriteFile(path, []byte("text\nenak sekali\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := f.svc.TriggerTraining(context.Background(), FileSource{Path: path}); !errors.Is(err, ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if s := f.svc.TrainingStatus(); s.IsTraining || s.Timestamp != nil {
		t.Fatalf("training must never start, got %+v", s)
	}
}

func TestTriggerTrainingFromCorrections(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.records = []domain.Analysis{
		{ID: 1, Text: "enak", Sentiment: domain.SentimentNegative, Correction: labelPtr(domain.SentimentPositive)},
		{ID: 2, Text: "lama", Sentiment: domain.SentimentPositive, Correction: labelPtr(domain.SentimentNegative)},
	}

	runID, err := f.svc.TriggerTraining(context.Background(), CorrectionSource{})
	if err != nil || runID == "" {
		t.Fatalf("trigger: run=%q err=%v", runID, err)
	}
	f.tuner.Wait()

	train, _, _ := f.trainer.Received()
	if len(train) != 2 || train[0].Label != 0 || train[1].Label != 2 {
		t.Fatalf("unexpected training set %+v", train)
	}
	if s := f.svc.TrainingStatus(); s.Message != MsgTrainingSucceeded {
		t.Fatalf("unexpected status %+v", s)
	}
	cp, _, _ := f.svc.ActiveCheckpoint()
	if cp.Kind != classifier.KindFineTuned {
		t.Fatalf("expected fine-tuned checkpoint after training, got %s", cp)
	}
}
