package service

import (
	"errors"
	"fmt"
)

var (
	ErrModelUnavailable   = errors.New("model unavailable")
	ErrInferenceFailed    = errors.New("inference failed")
	ErrUnknownLabel       = errors.New("unknown classifier label")
	ErrSchema             = errors.New("training data schema error")
	ErrInvalidLabel       = errors.New("invalid training label")
	ErrNoTrainingData     = errors.New("no training data")
	ErrTrainingRunFailed  = errors.New("training run failed")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAnalysisNotFound   = errors.New("analysis not found")
)

// InvalidLabelError nombra el valor que no es una de las tres etiquetas canonicas.
type InvalidLabelError struct {
	Value string
	Where string
}

func (e *InvalidLabelError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("invalid training label %q", e.Value)
	}
	return fmt.Sprintf("invalid training label %q at %s", e.Value, e.Where)
}

func (e *InvalidLabelError) Is(target error) bool {
	return target == ErrInvalidLabel
}
