package domain

import "time"

// TrainingExample es un ejemplo supervisado para fine-tuning.
type TrainingExample struct {
	Text  string         `json:"text"`
	Label SentimentLabel `json:"label"`
}

// TrainingStatus es la foto del estado de entrenamiento que ven los pollers.
type TrainingStatus struct {
	IsTraining bool       `json:"is_training"`
	Message    string     `json:"message"`
	RunID      string     `json:"run_id,omitempty"`
	Timestamp  *time.Time `json:"timestamp"`
}
