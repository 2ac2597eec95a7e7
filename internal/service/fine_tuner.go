package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ulasan/internal/classifier"
	"ulasan/internal/domain"
	"ulasan/internal/metrics"
)

// Hiperparametros fijos de cada corrida.
const (
	TrainMaxLength    = 128
	TrainEpochs       = 3
	TrainLearningRate = 2e-5
	TrainBatchSize    = 8
	TrainWeightDecay  = 0.01

	// Con menos ejemplos no se separa validacion.
	minExamplesForEvalSplit = 5
	evalFraction            = 0.2
)

// trainingLabelIDs sigue el orden de salida de la cabeza de clasificacion.
var trainingLabelIDs = map[domain.SentimentLabel]int{
	domain.SentimentPositive: 0,
	domain.SentimentNeutral:  1,
	domain.SentimentNegative: 2,
}

// FineTuner entrena un checkpoint nuevo a partir del base y lo publica en el directorio
// fine-tuned. Solo una corrida a la vez: un segundo disparo se rechaza con
// ErrTrainingInProgress.
type FineTuner struct {
	trainer   classifier.Trainer
	base      classifier.Checkpoint
	targetDir string
	models    CheckpointPublisher
	status    *TrainingStatusTracker
	lock      TrainingLock
	seed      int64
	logger    *zap.Logger

	// baseCtx solo se cancela al apagar el proceso; un request no puede abortar una corrida.
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewFineTuner(
	baseCtx context.Context,
	trainer classifier.Trainer,
	base classifier.Checkpoint,
	targetDir string,
	models CheckpointPublisher,
	status *TrainingStatusTracker,
	lock TrainingLock,
	seed int64,
	logger *zap.Logger,
) *FineTuner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if lock == nil {
		lock = NewLocalTrainingLock()
	}
	if base.Kind == "" {
		base.Kind = classifier.KindBase
	}
	return &FineTuner{
		trainer:   trainer,
		base:      base,
		targetDir: targetDir,
		models:    models,
		status:    status,
		lock:      lock,
		seed:      seed,
		logger:    logger,
		baseCtx:   baseCtx,
	}
}

// Trigger valida los ejemplos, toma el lock y lanza la corrida en segundo plano.
// Devuelve el id de la corrida; el resultado solo se observa en el TrainingStatusTracker.
func (f *FineTuner) Trigger(ctx context.Context, examples []domain.TrainingExample) (string, error) {
	runID, err := f.start(ctx, examples)
	if err != nil {
		return "", err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		_ = f.execute(f.baseCtx, runID, examples)
	}()
	return runID, nil
}

// Run ejecuta la corrida en el llamador. Lo usa el CLI de entrenamiento.
func (f *FineTuner) Run(ctx context.Context, examples []domain.TrainingExample) error {
	runID, err := f.start(ctx, examples)
	if err != nil {
		return err
	}
	return f.execute(ctx, runID, examples)
}

// Wait bloquea hasta que termine la corrida en segundo plano, si hay una.
func (f *FineTuner) Wait() {
	f.wg.Wait()
}

func (f *FineTuner) start(ctx context.Context, examples []domain.TrainingExample) (string, error) {
	if err := validateExamples(examples); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	acquired, err := f.lock.TryAcquire(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("acquire training lock: %w", err)
	}
	if !acquired {
		metrics.TrainingRunsTotal.WithLabelValues("rejected").Inc()
		return "", ErrTrainingInProgress
	}

	f.status.Begin(runID)
	metrics.TrainingExamples.Observe(float64(len(examples)))
	f.logger.Info("fine-tuning started", zap.String("run_id", runID), zap.Int("examples", len(examples)))
	return runID, nil
}

// execute siempre deja el estado en un mensaje terminal y libera el lock, incluso si la
// corrida entra en panic.
func (f *FineTuner) execute(ctx context.Context, runID string, examples []domain.TrainingExample) (err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTrainingRunFailed, r)
		}

		if err != nil {
			metrics.TrainingRunsTotal.WithLabelValues("failed").Inc()
			f.logger.Error("fine-tuning failed", zap.String("run_id", runID), zap.Error(err))
			f.status.Finish(runID, fmt.Sprintf(msgTrainingFailedFmt, err))
		} else {
			metrics.TrainingRunsTotal.WithLabelValues("succeeded").Inc()
			f.logger.Info("fine-tuning completed",
				zap.String("run_id", runID),
				zap.Duration("duration", time.Since(started)),
			)
			f.status.Finish(runID, MsgTrainingSucceeded)
		}

		if relErr := f.lock.Release(context.WithoutCancel(ctx), runID); relErr != nil {
			f.logger.Warn("release training lock", zap.String("run_id", runID), zap.Error(relErr))
		}
	}()

	return f.train(ctx, runID, examples)
}

func (f *FineTuner) train(ctx context.Context, runID string, examples []domain.TrainingExample) error {
	trainExamples, evalExamples := SplitExamples(examples, f.seed)

	tok, err := f.trainer.Tokenizer(ctx, f.base)
	if err != nil {
		return fmt.Errorf("%w: load tokenizer: %v", ErrTrainingRunFailed, err)
	}
	trainSet := encodeExamples(tok, trainExamples)
	evalSet := encodeExamples(tok, evalExamples)

	staging := stagingDir(f.targetDir, runID)
	defer os.RemoveAll(staging)

	args := classifier.TrainingArgs{
		Epochs:       TrainEpochs,
		LearningRate: TrainLearningRate,
		BatchSize:    TrainBatchSize,
		WeightDecay:  TrainWeightDecay,
		Seed:         f.seed,
	}
	report, err := f.trainer.Train(ctx, f.base, trainSet, evalSet, args, staging)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTrainingRunFailed, err)
	}
	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.Int("train_examples", len(trainSet)),
		zap.Int("eval_examples", len(evalSet)),
		zap.Int("steps", report.Steps),
		zap.Float64("train_loss", report.TrainLoss),
	}
	if report.EvalAccuracy != nil {
		fields = append(fields, zap.Float64("eval_accuracy", *report.EvalAccuracy))
	}
	f.logger.Info("training finished", fields...)

	if f.models == nil {
		if err := publishCheckpoint(staging, f.targetDir, runID); err != nil {
			return fmt.Errorf("%w: publish checkpoint: %v", ErrTrainingRunFailed, err)
		}
		f.logger.Info("checkpoint published", zap.String("run_id", runID), zap.String("path", f.targetDir))
		return nil
	}

	var swapErr error
	err = f.models.Publish(ctx, func() error {
		swapErr = publishCheckpoint(staging, f.targetDir, runID)
		return swapErr
	})
	if swapErr != nil {
		return fmt.Errorf("%w: publish checkpoint: %v", ErrTrainingRunFailed, swapErr)
	}
	f.logger.Info("checkpoint published", zap.String("run_id", runID), zap.String("path", f.targetDir))
	if err != nil {
		return fmt.Errorf("%w: reload after publish: %v", ErrTrainingRunFailed, err)
	}
	// Reload cae al base si el checkpoint nuevo no carga; eso no es un entrenamiento exitoso.
	if cp, _, ok := f.models.ActiveCheckpoint(); !ok || cp.Kind != classifier.KindFineTuned {
		return fmt.Errorf("%w: published checkpoint did not load, serving %s", ErrTrainingRunFailed, cp)
	}
	return nil
}

func validateExamples(examples []domain.TrainingExample) error {
	if len(examples) == 0 {
		return ErrNoTrainingData
	}
	for i, ex := range examples {
		if _, ok := trainingLabelIDs[ex.Label]; !ok {
			return &InvalidLabelError{Value: string(ex.Label), Where: fmt.Sprintf("example %d", i)}
		}
	}
	return nil
}

// SplitExamples separa 80/20 tras barajar con la semilla dada. Con 5 ejemplos o menos
// todo va a entrenamiento y no hay evaluacion.
func SplitExamples(examples []domain.TrainingExample, seed int64) (train, eval []domain.TrainingExample) {
	if len(examples) <= minExamplesForEvalSplit {
		return append([]domain.TrainingExample(nil), examples...), nil
	}

	shuffled := append([]domain.TrainingExample(nil), examples...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nEval := int(math.Ceil(float64(len(shuffled)) * evalFraction))
	return shuffled[nEval:], shuffled[:nEval]
}

func encodeExamples(tok classifier.Tokenizer, examples []domain.TrainingExample) []classifier.EncodedExample {
	if len(examples) == 0 {
		return nil
	}
	out := make([]classifier.EncodedExample, 0, len(examples))
	for _, ex := range examples {
		out = append(out, classifier.EncodedExample{
			Encoding: tok.Encode(ex.Text, TrainMaxLength, true),
			Label:    trainingLabelIDs[ex.Label],
		})
	}
	return out
}

// stagingDir es hermano del destino para que el rename final no cruce filesystems.
func stagingDir(target, runID string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".staging-"+runID)
}

// publishCheckpoint reemplaza target por staging. El checkpoint anterior se aparta primero
// y se restaura si el rename falla; un directorio a medio escribir nunca queda en target.
func publishCheckpoint(staging, target, runID string) error {
	if _, err := os.Stat(staging); err != nil {
		return fmt.Errorf("staged checkpoint missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	retired := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".old-"+runID)
	hadPrevious := false
	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, retired); err != nil {
			return fmt.Errorf("retire previous checkpoint: %w", err)
		}
		hadPrevious = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, target); err != nil {
		if hadPrevious {
			_ = os.Rename(retired, target)
		}
		return err
	}
	if hadPrevious {
		_ = os.RemoveAll(retired)
	}
	return nil
}
