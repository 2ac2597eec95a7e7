package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/domain"
)

type fixedProvider struct {
	session classifier.Session
	err     error
}

func (p fixedProvider) Active() (classifier.Session, error) { return p.session, p.err }

type recordingSession struct {
	classifier.MockSession
	lastText string
}

func (r *recordingSession) Classify(ctx context.Context, text string) (classifier.RawPrediction, error) {
	r.lastText = text
	return r.MockSession.Classify(ctx, text)
}

func TestInferenceServicePredict(t *testing.T) {
	t.Run("maps label and keeps confidence", func(t *testing.T) {
		s := NewInferenceService(fixedProvider{session: &classifier.MockSession{Label: "LABEL_2", Score: 0.93}}, NewLabelMapper(), zap.NewNop())
		got, err := s.Predict(context.Background(), "enak banget")
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		if got.Label != domain.SentimentPositive || got.Confidence != 0.93 {
			t.Fatalf("unexpected result %+v", got)
		}
	})

	cases := []struct {
		name    string
		session *classifier.MockSession
		extra   error
	}{
		{name: "backend failure", session: &classifier.MockSession{Err: errors.New("compute fault")}},
		{name: "unknown label", session: &classifier.MockSession{Label: "mixed", Score: 0.5}, extra: ErrUnknownLabel},
		{name: "confidence above one", session: &classifier.MockSession{Label: "positive", Score: 1.2}},
		{name: "negative confidence", session: &classifier.MockSession{Label: "positive", Score: -0.1}},
		{name: "nan confidence", session: &classifier.MockSession{Label: "positive", Score: math.NaN()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewInferenceService(fixedProvider{session: tc.session}, NewLabelMapper(), zap.NewNop())
			_, err := s.Predict(context.Background(), "rasanya biasa saja")
			if !errors.Is(err, ErrInferenceFailed) {
				t.Fatalf("expected ErrInferenceFailed, got %v", err)
			}
			if tc.extra != nil && !errors.Is(err, tc.extra) {
				t.Fatalf("expected %v in chain, got %v", tc.extra, err)
			}
		})
	}

	t.Run("no active session", func(t *testing.T) {
		s := NewInferenceService(fixedProvider{err: ErrModelUnavailable}, NewLabelMapper(), zap.NewNop())
		if _, err := s.Predict(context.Background(), "x"); !errors.Is(err, ErrModelUnavailable) {
			t.Fatalf("expected ErrModelUnavailable, got %v", err)
		}
	})

	t.Run("truncates long input by characters", func(t *testing.T) {
		rec := &recordingSession{MockSession: classifier.MockSession{Label: "neutral", Score: 0.4}}
		s := NewInferenceService(fixedProvider{session: rec}, NewLabelMapper(), zap.NewNop())
		if _, err := s.Predict(context.Background(), strings.Repeat("é", MaxInputChars+50)); err != nil {
			t.Fatalf("predict: %v", err)
		}
		if n := len([]rune(rec.lastText)); n != MaxInputChars {
			t.Fatalf("expected %d runes, got %d", MaxInputChars, n)
		}
	})
}

func TestInferenceWithLocalBackend(t *testing.T) {
	loader := classifier.NewLocalLoader(zap.NewNop())
	m := NewModelManager(loader, testBase, "", zap.NewNop())
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	s := NewInferenceService(m, NewLabelMapper(), zap.NewNop())
	for _, text := range []string{"", "makanannya enak sekali", "pelayannya jutek dan lambat", strings.Repeat("kata ", 2000)} {
		got, err := s.Predict(context.Background(), text)
		if err != nil {
			t.Fatalf("predict %q: %v", text, err)
		}
		if got.Confidence < 0 || got.Confidence > 1 || !got.Label.Valid() {
			t.Fatalf("invalid prediction %+v", got)
		}
	}
}
