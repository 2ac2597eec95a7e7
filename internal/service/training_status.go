package service

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"ulasan/internal/domain"
)

const (
	MsgTrainingInProgress = "Training in progress..."
	MsgTrainingSucceeded  = "Training completed successfully!"
	msgTrainingFailedFmt  = "Training failed: %v"
)

// TrainingStatusTracker es el registro compartido entre el orquestador y quien consulta el
// estado. Solo cambia en Begin y Finish.
type TrainingStatusTracker struct {
	mu     sync.RWMutex
	status domain.TrainingStatus
	clock  clockwork.Clock
}

func NewTrainingStatusTracker(clock clockwork.Clock) *TrainingStatusTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TrainingStatusTracker{clock: clock}
}

func (t *TrainingStatusTracker) Begin(runID string) {
	t.set(domain.TrainingStatus{IsTraining: true, Message: MsgTrainingInProgress, RunID: runID})
}

func (t *TrainingStatusTracker) Finish(runID, message string) {
	t.set(domain.TrainingStatus{IsTraining: false, Message: message, RunID: runID})
}

func (t *TrainingStatusTracker) set(status domain.TrainingStatus) {
	now := t.clock.Now().UTC()
	status.Timestamp = &now
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Snapshot devuelve una copia; nunca bloquea mas alla de la escritura en curso.
func (t *TrainingStatusTracker) Snapshot() domain.TrainingStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.status
	if out.Timestamp != nil {
		ts := *out.Timestamp
		out.Timestamp = &ts
	}
	return out
}
