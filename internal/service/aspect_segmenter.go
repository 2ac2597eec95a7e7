package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"ulasan/internal/domain"
)

//go:embed aspects.yaml
var defaultAspectsYAML []byte

// AspectTaxonomy es configuracion estatica: aspectos en orden de prioridad y palabras de corte.
type AspectTaxonomy struct {
	MinSegmentLength int                       `yaml:"min_segment_length"`
	SplitWords       []string                  `yaml:"split_words"`
	Aspects          []domain.AspectDefinition `yaml:"aspects"`
}

// LoadAspectTaxonomy lee la taxonomia de path; con path vacio usa la embebida.
func LoadAspectTaxonomy(path string) (AspectTaxonomy, error) {
	raw := defaultAspectsYAML
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return AspectTaxonomy{}, fmt.Errorf("read aspects file: %w", err)
		}
	}
	var t AspectTaxonomy
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return AspectTaxonomy{}, fmt.Errorf("parse aspects: %w", err)
	}
	if t.MinSegmentLength <= 0 {
		t.MinSegmentLength = 3
	}
	if len(t.Aspects) == 0 {
		return AspectTaxonomy{}, errors.New("aspect taxonomy has no aspects")
	}
	for i, a := range t.Aspects {
		if a.Category == "" || len(a.Keywords) == 0 {
			return AspectTaxonomy{}, fmt.Errorf("aspect #%d needs a category and keywords", i)
		}
		for j, k := range a.Keywords {
			t.Aspects[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}
	return t, nil
}

// Predictor clasifica un tramo de texto.
type Predictor interface {
	Predict(ctx context.Context, text string) (domain.PredictionResult, error)
}

// AspectSegmenter parte el texto por puntuacion y conjunciones (substring simple, sin POS),
// asigna cada segmento al primer aspecto cuyo keyword aparezca y clasifica los asignados.
type AspectSegmenter struct {
	predictor   Predictor
	taxonomy    AspectTaxonomy
	splitter    *regexp.Regexp
	parallelism int
	logger      *zap.Logger
}

func NewAspectSegmenter(predictor Predictor, taxonomy AspectTaxonomy, parallelism int, logger *zap.Logger) *AspectSegmenter {
	if parallelism <= 0 {
		parallelism = 1
	}
	parts := []string{`[,.]`}
	for _, w := range taxonomy.SplitWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			parts = append(parts, regexp.QuoteMeta(w))
		}
	}
	return &AspectSegmenter{
		predictor:   predictor,
		taxonomy:    taxonomy,
		splitter:    regexp.MustCompile(strings.Join(parts, "|")),
		parallelism: parallelism,
		logger:      logger,
	}
}

// Segments devuelve los segmentos recortados con al menos MinSegmentLength caracteres.
func (s *AspectSegmenter) Segments(text string) []string {
	var out []string
	for _, seg := range s.splitter.Split(strings.ToLower(text), -1) {
		seg = strings.TrimSpace(seg)
		if utf8.RuneCountInString(seg) < s.taxonomy.MinSegmentLength {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Match aplica first-match-wins en el orden de prioridad de la taxonomia.
func (s *AspectSegmenter) Match(segment string) (domain.AspectCategory, bool) {
	for _, a := range s.taxonomy.Aspects {
		for _, k := range a.Keywords {
			if strings.Contains(segment, k) {
				return a.Category, true
			}
		}
	}
	return "", false
}

type matchedSegment struct {
	aspect domain.AspectCategory
	text   string
}

// SegmentAndClassify devuelve resultados en el orden en que aparecen en el texto. Los segmentos sin
// aspecto se descartan en silencio; texto vacio devuelve una lista vacia.
func (s *AspectSegmenter) SegmentAndClassify(ctx context.Context, text string) ([]domain.AspectResult, error) {
	var matched []matchedSegment
	for _, seg := range s.Segments(text) {
		if aspect, ok := s.Match(seg); ok {
			matched = append(matched, matchedSegment{aspect: aspect, text: seg})
		}
	}
	results := make([]domain.AspectResult, len(matched))
	if len(matched) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, m := range matched {
		i, m := i, m
		g.Go(func() error {
			pred, err := s.predictor.Predict(gctx, m.text)
			if err != nil {
				return fmt.Errorf("aspect %s: %w", m.aspect, err)
			}
			results[i] = domain.AspectResult{Aspect: m.aspect, SegmentText: m.text, Prediction: pred}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Debug("aspects classified", zap.Int("segments", len(results)))
	return results, nil
}
