package domain

import "time"

// SentimentLabel es la etiqueta canonica de tres vias.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

// SentimentLabels lista las etiquetas en el orden de la cabeza de clasificacion.
var SentimentLabels = []SentimentLabel{SentimentPositive, SentimentNeutral, SentimentNegative}

// Valid indica si la etiqueta es una de las tres canonicas.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// PredictionResult es el resultado efimero de clasificar un texto.
type PredictionResult struct {
	Label      SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
}

// Analysis es un registro del historial con la correccion humana opcional.
type Analysis struct {
	ID         int64           `json:"id"`
	Text       string          `json:"text"`
	Sentiment  SentimentLabel  `json:"sentiment"`
	Confidence float64         `json:"confidence"`
	Correction *SentimentLabel `json:"correction,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
