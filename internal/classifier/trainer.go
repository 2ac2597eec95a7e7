package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
)

// TrainingArgs.LearningRate viene en la escala de un transformer (2e-5). Este backend la
// multiplica por learningRateScale y normaliza cada paso con AdaGrad: a 2e-5 el primer paso
// mueve cada peso ~0.5. El weight decay usa la tasa sin escalar.
const (
	learningRateScale = 25000
	adagradEpsilon    = 1e-8
)

// LocalTrainer entrena el backend lineal con AdaGrad por mini-batches y cross-entropy.
type LocalTrainer struct {
	loader *LocalLoader
	logger *zap.Logger
}

func NewLocalTrainer(loader *LocalLoader, logger *zap.Logger) *LocalTrainer {
	return &LocalTrainer{loader: loader, logger: logger}
}

func (t *LocalTrainer) Tokenizer(ctx context.Context, base Checkpoint) (Tokenizer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := t.loader.loadModel(base)
	if err != nil {
		return nil, err
	}
	return model.tokenizer, nil
}

func (t *LocalTrainer) Train(ctx context.Context, base Checkpoint, train, eval []EncodedExample, args TrainingArgs, outDir string) (TrainReport, error) {
	if len(train) == 0 {
		return TrainReport{}, ErrEmptyTrainingSet
	}
	if args.BatchSize <= 0 {
		args.BatchSize = 8
	}
	baseModel, err := t.loader.loadModel(base)
	if err != nil {
		return TrainReport{}, fmt.Errorf("load base model: %w", err)
	}
	model := baseModel.clone()

	for _, ex := range append(append([]EncodedExample(nil), train...), eval...) {
		if ex.Label < 0 || ex.Label >= len(ClassLabels) {
			return TrainReport{}, fmt.Errorf("label id %d out of range", ex.Label)
		}
	}

	opt := newAdagradState(model)
	rng := rand.New(rand.NewSource(args.Seed))
	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	report := TrainReport{Epochs: args.Epochs}
	for epoch := 1; epoch <= args.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for start := 0; start < len(order); start += args.BatchSize {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			end := min(start+args.BatchSize, len(order))
			batch := make([]EncodedExample, 0, end-start)
			for _, idx := range order[start:end] {
				batch = append(batch, train[idx])
			}
			epochLoss += model.step(batch, opt, args.LearningRate, args.WeightDecay)
			report.Steps++
		}
		report.TrainLoss = epochLoss / float64(len(train))

		fields := []zap.Field{
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", report.TrainLoss),
		}
		if len(eval) > 0 {
			acc := model.accuracy(eval)
			report.EvalAccuracy = &acc
			fields = append(fields, zap.Float64("eval_accuracy", acc))
		}
		t.logger.Info("epoch finished", fields...)
	}

	if err := writeCheckpoint(outDir, model); err != nil {
		return report, fmt.Errorf("write checkpoint: %w", err)
	}
	return report, nil
}

// adagradState acumula el cuadrado de los gradientes por parametro.
type adagradState struct {
	w [][]float64
	b []float64
}

func newAdagradState(m *linearModel) *adagradState {
	st := &adagradState{w: make([][]float64, len(m.weights)), b: make([]float64, len(m.bias))}
	for c := range st.w {
		st.w[c] = make([]float64, len(m.weights[c]))
	}
	return st
}

// step aplica una actualizacion AdaGrad con weight decay desacoplado y devuelve la perdida sumada.
// Solo se tocan los buckets presentes en el batch.
func (m *linearModel) step(batch []EncodedExample, opt *adagradState, lr, weightDecay float64) float64 {
	classes := len(m.bias)
	gradB := make([]float64, classes)
	gradW := make([]map[int]float64, classes)
	for c := range gradW {
		gradW[c] = make(map[int]float64)
	}

	var loss float64
	for _, ex := range batch {
		p := m.probs(ex.Encoding)
		loss -= math.Log(math.Max(p[ex.Label], 1e-12))
		for c := 0; c < classes; c++ {
			g := p[c]
			if c == ex.Label {
				g -= 1
			}
			gradB[c] += g
			for i, id := range ex.Encoding.IDs {
				if ex.Encoding.Mask[i] == 1 {
					gradW[c][id] += g
				}
			}
		}
	}

	if weightDecay > 0 {
		decay := 1 - lr*weightDecay
		for c := range m.weights {
			for i := range m.weights[c] {
				m.weights[c][i] *= decay
			}
		}
	}

	rate := lr * learningRateScale
	n := float64(len(batch))
	for c := 0; c < classes; c++ {
		g := gradB[c] / n
		opt.b[c] += g * g
		m.bias[c] -= rate * g / (math.Sqrt(opt.b[c]) + adagradEpsilon)
		for id, sum := range gradW[c] {
			g := sum / n
			opt.w[c][id] += g * g
			m.weights[c][id] -= rate * g / (math.Sqrt(opt.w[c][id]) + adagradEpsilon)
		}
	}
	return loss
}

func (m *linearModel) accuracy(examples []EncodedExample) float64 {
	if len(examples) == 0 {
		return 0
	}
	var hits int
	for _, ex := range examples {
		if argmax(m.probs(ex.Encoding)) == ex.Label {
			hits++
		}
	}
	return float64(hits) / float64(len(examples))
}
