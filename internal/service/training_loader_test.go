package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ulasan/internal/domain"
)

func TestLoadCSV(t *testing.T) {
	l := NewTrainingDataLoader(nil, zap.NewNop())

	t.Run("valid file keeps order", func(t *testing.T) {
		got, err := l.LoadCSV(strings.NewReader("\ufefftext,label\nenak sekali,Positive\nbiasa saja, Neutral\n\"mahal, lambat\",Negative\n"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		want := []domain.TrainingExample{
			{Text: "enak sekali", Label: domain.SentimentPositive},
			{Text: "biasa saja", Label: domain.SentimentNeutral},
			{Text: "mahal, lambat", Label: domain.SentimentNegative},
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d examples, got %+v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("example %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("missing label column", func(t *testing.T) {
		_, err := l.LoadCSV(strings.NewReader("text,sentiment\nenak,Positive\n"))
		if !errors.Is(err, ErrSchema) {
			t.Fatalf("expected ErrSchema, got %v", err)
		}
	})

	t.Run("column names are exact", func(t *testing.T) {
		_, err := l.LoadCSV(strings.NewReader("Text,Label\nenak,Positive\n"))
		if !errors.Is(err, ErrSchema) {
			t.Fatalf("expected ErrSchema, got %v", err)
		}
	})

	t.Run("invalid label names the value", func(t *testing.T) {
		_, err := l.LoadCSV(strings.NewReader("text,label\nenak,Positive\njelek,Positif\n"))
		if !errors.Is(err, ErrInvalidLabel) {
			t.Fatalf("expected ErrInvalidLabel, got %v", err)
		}
		var labelErr *InvalidLabelError
		if !errors.As(err, &labelErr) || labelErr.Value != "Positif" || labelErr.Where != "row 3" {
			t.Fatalf("unexpected error detail %+v", labelErr)
		}
	})

	t.Run("header only", func(t *testing.T) {
		if _, err := l.LoadCSV(strings.NewReader("text,label\n")); !errors.Is(err, ErrNoTrainingData) {
			t.Fatalf("expected ErrNoTrainingData, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		if _, err := l.LoadCSV(strings.NewReader("")); !errors.Is(err, ErrSchema) {
			t.Fatalf("expected ErrSchema, got %v", err)
		}
	})

	t.Run("caps at prefix", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("label,text\n")
		for i := 0; i < MaxFileExamples+100; i++ {
			fmt.Fprintf(&b, "Neutral,row %d\n", i)
		}
		got, err := l.LoadCSV(strings.NewReader(b.String()))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != MaxFileExamples || got[0].Text != "row 0" || got[len(got)-1].Text != fmt.Sprintf("row %d", MaxFileExamples-1) {
			t.Fatalf("expected first %d rows, got %d", MaxFileExamples, len(got))
		}
	})

	t.Run("rows past the cap are not parsed", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("text,label\n")
		for i := 0; i < MaxFileExamples; i++ {
			fmt.Fprintf(&b, "row %d,Positive\n", i)
		}
		b.WriteString("broken,row,with,extra,fields\n")
		got, err := l.LoadCSV(strings.NewReader(b.String()))
		if err != nil {
			t.Fatalf("malformed row beyond the cap must be ignored, got %v", err)
		}
		if len(got) != MaxFileExamples {
			t.Fatalf("expected %d examples, got %d", MaxFileExamples, len(got))
		}
	})

	t.Run("indonesian label spellings are rejected", func(t *testing.T) {
		for _, label := range []string{"Positif", "Netral", "Negatif"} {
			_, err := l.LoadCSV(strings.NewReader("text,label\nulasan," + label + "\n"))
			if !errors.Is(err, ErrInvalidLabel) {
				t.Fatalf("%s: expected ErrInvalidLabel, got %v", label, err)
			}
		}
	})
}

func TestLoadFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte("text,label\nmantap,Positive\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l := NewTrainingDataLoader(nil, zap.NewNop())
	got, err := l.Load(context.Background(), FileSource{Path: path})
	if err != nil || len(got) != 1 {
		t.Fatalf("unexpected result %+v err=%v", got, err)
	}
	if _, err := l.Load(context.Background(), FileSource{Path: path + ".missing"}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadCorrections(t *testing.T) {
	t.Run("uses the correction as label", func(t *testing.T) {
		repo := &mockAnalysisRepo{records: []domain.Analysis{
			{ID: 1, Text: "enak", Sentiment: domain.SentimentNegative, Correction: labelPtr(domain.SentimentPositive)},
			{ID: 2, Text: "biasa", Sentiment: domain.SentimentNeutral},
			{ID: 3, Text: "mahal", Sentiment: domain.SentimentPositive, Correction: labelPtr(domain.SentimentNegative)},
		}}
		l := NewTrainingDataLoader(repo, zap.NewNop())
		got, err := l.Load(context.Background(), CorrectionSource{})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 2 || got[0].Label != domain.SentimentPositive || got[1].Label != domain.SentimentNegative {
			t.Fatalf("unexpected examples %+v", got)
		}
	})

	t.Run("nothing corrected", func(t *testing.T) {
		repo := &mockAnalysisRepo{records: []domain.Analysis{{ID: 1, Text: "enak", Sentiment: domain.SentimentPositive}}}
		l := NewTrainingDataLoader(repo, zap.NewNop())
		if _, err := l.Load(context.Background(), CorrectionSource{}); !errors.Is(err, ErrNoTrainingData) {
			t.Fatalf("expected ErrNoTrainingData, got %v", err)
		}
	})

	t.Run("stored correction outside the enum", func(t *testing.T) {
		repo := &mockAnalysisRepo{records: []domain.Analysis{{ID: 7, Text: "x", Correction: labelPtr("Netral")}}}
		l := NewTrainingDataLoader(repo, zap.NewNop())
		if _, err := l.Load(context.Background(), CorrectionSource{}); !errors.Is(err, ErrInvalidLabel) {
			t.Fatalf("expected ErrInvalidLabel, got %v", err)
		}
	})

	t.Run("store error", func(t *testing.T) {
		repo := &mockAnalysisRepo{listErr: errors.New("db down")}
		l := NewTrainingDataLoader(repo, zap.NewNop())
		_, err := l.Load(context.Background(), CorrectionSource{})
		if err == nil || errors.Is(err, ErrNoTrainingData) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}
