package classifier

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

type lexicon struct {
	Buckets      int       `yaml:"buckets"`
	WordWeight   float64   `yaml:"word_weight"`
	CrossPenalty float64   `yaml:"cross_penalty"`
	Bias         []float64 `yaml:"bias"`
	Positive     []string  `yaml:"positive"`
	Negative     []string  `yaml:"negative"`
}

// baseFromLexicon construye el checkpoint base a partir del lexico embebido.
func baseFromLexicon() (*linearModel, error) {
	var lex lexicon
	if err := yaml.Unmarshal(lexiconYAML, &lex); err != nil {
		return nil, fmt.Errorf("%w: parse lexicon: %v", ErrCorruptCheckpoint, err)
	}
	if len(lex.Bias) != len(ClassLabels) {
		return nil, fmt.Errorf("%w: lexicon bias must have %d values", ErrCorruptCheckpoint, len(ClassLabels))
	}

	const (
		pos = 0
		neg = 2
	)
	m := newLinearModel(lex.Buckets)
	copy(m.bias, lex.Bias)
	for _, w := range lex.Positive {
		id := m.tokenizer.id(w)
		m.weights[pos][id] += lex.WordWeight
		m.weights[neg][id] -= lex.CrossPenalty
	}
	for _, w := range lex.Negative {
		id := m.tokenizer.id(w)
		m.weights[neg][id] += lex.WordWeight
		m.weights[pos][id] -= lex.CrossPenalty
	}
	return m, nil
}
