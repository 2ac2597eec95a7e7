package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// linearModel es una cabeza softmax lineal sobre bolsa de palabras hasheadas.
type linearModel struct {
	labels    []string
	tokenizer hashTokenizer
	weights   [][]float64 // [clase][bucket]
	bias      []float64
}

func newLinearModel(buckets int) *linearModel {
	m := &linearModel{
		labels:    append([]string(nil), ClassLabels...),
		tokenizer: newHashTokenizer(buckets),
		weights:   make([][]float64, len(ClassLabels)),
		bias:      make([]float64, len(ClassLabels)),
	}
	for c := range m.weights {
		m.weights[c] = make([]float64, m.tokenizer.buckets)
	}
	return m
}

func (m *linearModel) clone() *linearModel {
	out := &linearModel{
		labels:    append([]string(nil), m.labels...),
		tokenizer: m.tokenizer,
		weights:   make([][]float64, len(m.weights)),
		bias:      append([]float64(nil), m.bias...),
	}
	for c, row := range m.weights {
		out.weights[c] = append([]float64(nil), row...)
	}
	return out
}

func (m *linearModel) probs(enc Encoding) []float64 {
	logits := append([]float64(nil), m.bias...)
	for i, id := range enc.IDs {
		if enc.Mask[i] == 0 {
			continue
		}
		for c := range logits {
			logits[c] += m.weights[c][id]
		}
	}
	return softmax(logits)
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

type linearSession struct {
	model      *linearModel
	checkpoint Checkpoint
}

func (s *linearSession) Classify(ctx context.Context, text string) (RawPrediction, error) {
	if err := ctx.Err(); err != nil {
		return RawPrediction{}, err
	}
	p := s.model.probs(s.model.tokenizer.Encode(text, MaxInferenceTokens, false))
	best := argmax(p)
	return RawPrediction{Label: s.model.labels[best], Score: p[best]}, nil
}

func (s *linearSession) Checkpoint() Checkpoint {
	return s.checkpoint
}

// LocalLoader carga checkpoints del backend lineal desde disco o desde el lexico embebido.
type LocalLoader struct {
	logger *zap.Logger
}

func NewLocalLoader(logger *zap.Logger) *LocalLoader {
	return &LocalLoader{logger: logger}
}

func (l *LocalLoader) Load(ctx context.Context, cp Checkpoint) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := l.loadModel(cp)
	if err != nil {
		return nil, err
	}
	l.logger.Info("checkpoint loaded", zap.String("checkpoint", cp.String()), zap.Int("buckets", model.tokenizer.buckets))
	return &linearSession{model: model, checkpoint: cp}, nil
}

func (l *LocalLoader) loadModel(cp Checkpoint) (*linearModel, error) {
	if cp.Kind == KindBase && cp.Path == "" {
		return baseFromLexicon()
	}
	if cp.Path == "" {
		return nil, errors.New("checkpoint path is empty")
	}
	model, err := readCheckpoint(cp.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cp, err)
	}
	return model, nil
}
