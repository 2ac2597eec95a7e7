package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTrainingStatusTracker(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	tracker := NewTrainingStatusTracker(clock)

	initial := tracker.Snapshot()
	if initial.IsTraining || initial.Timestamp != nil {
		t.Fatalf("expected idle zero status, got %+v", initial)
	}

	tracker.Begin("run-1")
	s := tracker.Snapshot()
	if !s.IsTraining || s.Message != MsgTrainingInProgress || s.RunID != "run-1" || !s.Timestamp.Equal(start) {
		t.Fatalf("unexpected in-progress status %+v", s)
	}

	clock.Advance(3 * time.Minute)
	tracker.Finish("run-1", MsgTrainingSucceeded)
	done := tracker.Snapshot()
	if done.IsTraining || done.Message != MsgTrainingSucceeded || !done.Timestamp.Equal(start.Add(3*time.Minute)) {
		t.Fatalf("unexpected terminal status %+v", done)
	}

	*done.Timestamp = time.Time{}
	if tracker.Snapshot().Timestamp.IsZero() {
		t.Fatalf("snapshot must be a copy")
	}
}
