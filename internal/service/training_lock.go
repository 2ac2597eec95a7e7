package service

import (
	"context"
	"sync"
)

// TrainingLock garantiza una sola corrida de fine-tuning a la vez. La politica es rechazar:
// TryAcquire devuelve false si otra corrida ya lo tiene.
type TrainingLock interface {
	TryAcquire(ctx context.Context, runID string) (bool, error)
	Release(ctx context.Context, runID string) error
}

type localTrainingLock struct {
	mu     sync.Mutex
	holder string
}

func NewLocalTrainingLock() TrainingLock {
	return &localTrainingLock{}
}

func (l *localTrainingLock) TryAcquire(_ context.Context, runID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != "" {
		return false, nil
	}
	l.holder = runID
	return true, nil
}

func (l *localTrainingLock) Release(_ context.Context, runID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == runID {
		l.holder = ""
	}
	return nil
}
