package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type stubTrigger struct {
	calls chan TrainingSource
	err   error
}

func (s *stubTrigger) TriggerTraining(_ context.Context, src TrainingSource) (string, error) {
	s.calls <- src
	return "run", s.err
}

func TestRetrainSchedulerFiresOnSchedule(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 8, 0, 30, 0, time.UTC))
	trigger := &stubTrigger{calls: make(chan TrainingSource, 1)}
	s, err := NewRetrainScheduler("*/5 * * * *", trigger, clock, zap.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go s.Start(ctx)

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("scheduler did not wait: %v", err)
	}
	select {
	case <-trigger.calls:
		t.Fatalf("fired before the scheduled time")
	default:
	}

	clock.Advance(5 * time.Minute)
	select {
	case src := <-trigger.calls:
		if _, ok := src.(CorrectionSource); !ok {
			t.Fatalf("expected correction source, got %T", src)
		}
	case <-ctx.Done():
		t.Fatalf("scheduled retrain not triggered")
	}
}

func TestRetrainSchedulerRejectsBadExpression(t *testing.T) {
	if _, err := NewRetrainScheduler("every day", &stubTrigger{}, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := NewRetrainScheduler("0 0 * * * *", &stubTrigger{}, nil, zap.NewNop()); err == nil {
		t.Fatalf("six-field expressions are not accepted")
	}
}

func TestRetrainSchedulerRunOnceSkipsWithoutData(t *testing.T) {
	trigger := &stubTrigger{calls: make(chan TrainingSource, 1), err: ErrNoTrainingData}
	s, err := NewRetrainScheduler("0 3 * * *", trigger, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.RunOnce(context.Background())
	if len(trigger.calls) != 1 {
		t.Fatalf("expected a trigger attempt")
	}
}
