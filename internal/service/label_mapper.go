package service

import (
	"fmt"
	"strings"

	"ulasan/internal/domain"
)

// LabelMapper normaliza etiquetas crudas del clasificador al enum canonico.
// Las etiquetas desconocidas se rechazan; nunca se devuelven tal cual.
type LabelMapper struct {
	table map[string]domain.SentimentLabel
}

var defaultLabelTable = map[string]domain.SentimentLabel{
	"positive": domain.SentimentPositive,
	"neutral":  domain.SentimentNeutral,
	"negative": domain.SentimentNegative,
	// Checkpoints entrenados en bahasa Indonesia.
	"positif": domain.SentimentPositive,
	"netral":  domain.SentimentNeutral,
	"negatif": domain.SentimentNegative,
	// Codigos posicionales de la familia de modelos base.
	"label_0": domain.SentimentNegative,
	"label_1": domain.SentimentNeutral,
	"label_2": domain.SentimentPositive,
}

func NewLabelMapper() LabelMapper {
	return LabelMapper{table: defaultLabelTable}
}

func (m LabelMapper) Map(raw string) (domain.SentimentLabel, error) {
	label, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLabel, raw)
	}
	return label, nil
}
