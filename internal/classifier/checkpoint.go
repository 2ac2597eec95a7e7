package classifier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

const (
	configFile  = "config.yaml"
	weightsFile = "model.msgpack"
	modelType   = "hashed-linear"
)

type checkpointConfig struct {
	ModelType string         `yaml:"model_type"`
	ID2Label  map[int]string `yaml:"id2label"`
	Tokenizer tokenizerSpec  `yaml:"tokenizer"`
}

type tokenizerSpec struct {
	Type      string `yaml:"type"`
	Buckets   int    `yaml:"buckets"`
	Lowercase bool   `yaml:"lowercase"`
}

type weightsBlob struct {
	W [][]float64 `msgpack:"w"`
	B []float64   `msgpack:"b"`
}

func readCheckpoint(dir string) (*linearModel, error) {
	rawCfg, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", configFile, err)
	}
	var cfg checkpointConfig
	if err := yaml.Unmarshal(rawCfg, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptCheckpoint, configFile, err)
	}
	if cfg.ModelType != modelType || len(cfg.ID2Label) != len(ClassLabels) || cfg.Tokenizer.Buckets < 2 {
		return nil, fmt.Errorf("%w: unexpected config in %s", ErrCorruptCheckpoint, dir)
	}

	rawW, err := os.ReadFile(filepath.Join(dir, weightsFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", weightsFile, err)
	}
	var blob weightsBlob
	if err := msgpack.Unmarshal(rawW, &blob); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptCheckpoint, weightsFile, err)
	}
	if len(blob.W) != len(ClassLabels) || len(blob.B) != len(ClassLabels) {
		return nil, fmt.Errorf("%w: head shape mismatch", ErrCorruptCheckpoint)
	}
	for _, row := range blob.W {
		if len(row) != cfg.Tokenizer.Buckets {
			return nil, fmt.Errorf("%w: weights do not match %d buckets", ErrCorruptCheckpoint, cfg.Tokenizer.Buckets)
		}
	}

	labels := make([]string, len(ClassLabels))
	for i := range labels {
		labels[i] = cfg.ID2Label[i]
	}
	return &linearModel{
		labels:    labels,
		tokenizer: newHashTokenizer(cfg.Tokenizer.Buckets),
		weights:   blob.W,
		bias:      blob.B,
	}, nil
}

func writeCheckpoint(dir string, m *linearModel) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	id2label := make(map[int]string, len(m.labels))
	for i, l := range m.labels {
		id2label[i] = l
	}
	cfg := checkpointConfig{
		ModelType: modelType,
		ID2Label:  id2label,
		Tokenizer: tokenizerSpec{Type: "hashed-word", Buckets: m.tokenizer.buckets, Lowercase: true},
	}
	rawCfg, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), rawCfg, 0o644); err != nil {
		return err
	}
	rawW, err := msgpack.Marshal(weightsBlob{W: m.weights, B: m.bias})
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, weightsFile), rawW, 0o644)
}
