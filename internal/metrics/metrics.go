// Package metrics expone los colectores Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_predictions_total",
			Help: "Total successful predictions by canonical label",
		},
		[]string{"label"},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_inference_duration_seconds",
			Help:    "Inference duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	InferenceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_inference_errors_total",
			Help: "Total failed predictions by reason",
		},
		[]string{"reason"},
	)

	ModelReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_model_reloads_total",
			Help: "Model load attempts by checkpoint kind and outcome",
		},
		[]string{"checkpoint", "outcome"},
	)

	ActiveCheckpoint = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentiment_active_checkpoint",
			Help: "1 for the checkpoint kind currently serving traffic",
		},
		[]string{"kind"},
	)

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_training_runs_total",
			Help: "Fine-tuning runs by outcome (succeeded/failed/rejected)",
		},
		[]string{"outcome"},
	)

	TrainingExamples = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_training_examples",
			Help:    "Number of examples per fine-tuning run",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
		},
	)
)

// SetActiveCheckpoint marca kind como activo y apaga el resto.
func SetActiveCheckpoint(kind string, all ...string) {
	for _, k := range all {
		ActiveCheckpoint.WithLabelValues(k).Set(0)
	}
	ActiveCheckpoint.WithLabelValues(kind).Set(1)
}
