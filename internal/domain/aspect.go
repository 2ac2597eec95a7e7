package domain

// AspectCategory es una categoria tematica fija (Food, Service, Price, Ambience).
type AspectCategory string

const (
	AspectFood     AspectCategory = "Food"
	AspectService  AspectCategory = "Service"
	AspectPrice    AspectCategory = "Price"
	AspectAmbience AspectCategory = "Ambience"
)

// AspectDefinition liga una categoria a su conjunto estatico de palabras clave.
type AspectDefinition struct {
	Category AspectCategory `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
}

// AspectResult es la prediccion de un segmento asignado a un aspecto.
type AspectResult struct {
	Aspect      AspectCategory   `json:"aspect"`
	SegmentText string           `json:"text"`
	Prediction  PredictionResult `json:"prediction"`
}
