// Package classifier contiene el backend de clasificacion tratado como caja negra:
// carga de checkpoints, sesiones de inferencia y el entrenador usado por el fine-tuning.
package classifier

import (
	"context"
	"errors"
)

// CheckpointKind distingue el checkpoint base del producido por fine-tuning.
type CheckpointKind string

const (
	KindBase      CheckpointKind = "base"
	KindFineTuned CheckpointKind = "fine_tuned"
)

// Checkpoint identifica un conjunto de pesos. Un Path vacio en el base apunta al lexico embebido.
type Checkpoint struct {
	Kind CheckpointKind `json:"kind"`
	Path string         `json:"path,omitempty"`
}

func (c Checkpoint) String() string {
	if c.Path == "" {
		return string(c.Kind) + ":embedded"
	}
	return string(c.Kind) + ":" + c.Path
}

// MaxInferenceTokens es el presupuesto de tokens que la sesion aplica con truncado.
const MaxInferenceTokens = 512

// ClassLabels es el id2label de la cabeza de clasificacion.
var ClassLabels = []string{"positive", "neutral", "negative"}

var (
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")
	ErrEmptyTrainingSet  = errors.New("empty training set")
)

// RawPrediction es la salida cruda del modelo, con la etiqueta en su propio vocabulario.
type RawPrediction struct {
	Label string
	Score float64
}

// Session es el par (tokenizer, modelo) listo para inferir. Es de solo lectura y segura
// para uso concurrente.
type Session interface {
	Classify(ctx context.Context, text string) (RawPrediction, error)
	Checkpoint() Checkpoint
}

// Loader construye sesiones a partir de checkpoints.
type Loader interface {
	Load(ctx context.Context, cp Checkpoint) (Session, error)
}

// Encoding es la salida del tokenizer. Mask vale 1 en tokens reales y 0 en padding.
type Encoding struct {
	IDs  []int
	Mask []int
}

// Tokenizer convierte texto a ids con longitud maxima y padding opcional.
type Tokenizer interface {
	Encode(text string, maxLen int, pad bool) Encoding
}

// EncodedExample es un ejemplo tokenizado con su etiqueta entera.
type EncodedExample struct {
	Encoding Encoding
	Label    int
}

// TrainingArgs son los hiperparametros fijos de una corrida.
type TrainingArgs struct {
	Epochs       int
	LearningRate float64
	BatchSize    int
	WeightDecay  float64
	Seed         int64
}

// TrainReport resume una corrida de entrenamiento.
type TrainReport struct {
	Epochs       int
	Steps        int
	TrainLoss    float64
	EvalAccuracy *float64
}

// Trainer entrena a partir de un checkpoint y escribe el resultado en outDir.
type Trainer interface {
	Tokenizer(ctx context.Context, base Checkpoint) (Tokenizer, error)
	Train(ctx context.Context, base Checkpoint, train, eval []EncodedExample, args TrainingArgs, outDir string) (TrainReport, error)
}
