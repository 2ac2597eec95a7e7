package classifier

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// MockSession permite tests sin cargar pesos reales.
type MockSession struct {
	Label string
	Score float64
	Err   error
	CP    Checkpoint
	// Gate, si no es nil, bloquea Classify hasta que se cierre.
	Gate  chan struct{}
	calls atomic.Int64
}

func (m *MockSession) Classify(ctx context.Context, text string) (RawPrediction, error) {
	m.calls.Add(1)
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return RawPrediction{}, ctx.Err()
		}
	}
	return RawPrediction{Label: m.Label, Score: m.Score}, m.Err
}

func (m *MockSession) Checkpoint() Checkpoint { return m.CP }

func (m *MockSession) Calls() int64 { return m.calls.Load() }

// MockLoader devuelve sesiones o errores por tipo de checkpoint.
type MockLoader struct {
	mu       sync.Mutex
	Sessions map[CheckpointKind]Session
	Errs     map[CheckpointKind]error
	Loaded   []Checkpoint
}

func (m *MockLoader) Load(_ context.Context, cp Checkpoint) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loaded = append(m.Loaded, cp)
	if err := m.Errs[cp.Kind]; err != nil {
		return nil, err
	}
	return m.Sessions[cp.Kind], nil
}

func (m *MockLoader) LoadedCheckpoints() []Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Checkpoint(nil), m.Loaded...)
}

// MockTrainer registra lo recibido y escribe un archivo marcador en outDir.
type MockTrainer struct {
	mu       sync.Mutex
	Err      error
	TrainSet []EncodedExample
	EvalSet  []EncodedExample
	Args     TrainingArgs
	// Gate, si no es nil, bloquea Train hasta que se cierre.
	Gate chan struct{}
	// Panic fuerza un panic dentro de Train.
	Panic bool
}

func (m *MockTrainer) Tokenizer(context.Context, Checkpoint) (Tokenizer, error) {
	return newHashTokenizer(64), nil
}

func (m *MockTrainer) Train(ctx context.Context, _ Checkpoint, train, eval []EncodedExample, args TrainingArgs, outDir string) (TrainReport, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return TrainReport{}, ctx.Err()
		}
	}
	if m.Panic {
		panic("trainer exploded")
	}
	m.mu.Lock()
	m.TrainSet = train
	m.EvalSet = eval
	m.Args = args
	m.mu.Unlock()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return TrainReport{}, err
	}
	if err := os.WriteFile(filepath.Join(outDir, "partial.bin"), []byte("x"), 0o644); err != nil {
		return TrainReport{}, err
	}
	if m.Err != nil {
		return TrainReport{}, m.Err
	}
	return TrainReport{Epochs: args.Epochs, Steps: len(train)}, nil
}

// Received devuelve los splits recibidos en la ultima llamada.
func (m *MockTrainer) Received() (train, eval []EncodedExample, args TrainingArgs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TrainSet, m.EvalSet, m.Args
}
