package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

// Hyperparams are fixed when a model is constructed and travel with
// every checkpoint.
type Hyperparams struct {
	Topics       int     `yaml:"n_document_topics"`
	Embedding    int     `yaml:"n_embedding"`
	BatchSize    int     `yaml:"batch_size"`
	Window       int     `yaml:"window"`
	LearningRate float64 `yaml:"learning_rate"`
	// keep probability of the context dropout
	DropoutRatio float64 `yaml:"dropout_ratio"`
	// keep probability of a valid target
	WordDropout float64 `yaml:"word_dropout"`
	// unigram sampler distortion
	Power       float64 `yaml:"power"`
	Samples     int     `yaml:"n_samples"`
	Temperature float64 `yaml:"temperature"`
	// strength of the Dirichlet prior
	Lambda float64 `yaml:"lmbda"`
	// Dirichlet concentration, 0 means 1/Topics
	Alpha float64 `yaml:"alpha"`
}

// Training controls the loop cadence and output locations.
type Training struct {
	// 0 trains until interrupted
	MaxEpochs        int    `yaml:"max_epochs"`
	LossSwitchEpochs int    `yaml:"loss_switch_epochs"`
	Save             bool   `yaml:"save"`
	SaveEvery        int    `yaml:"save_every"`
	Summarize        bool   `yaml:"summarize"`
	SummarizeEvery   int    `yaml:"summarize_every"`
	LogEvery         int    `yaml:"log_every"`
	OutDir           string `yaml:"out_dir"`
	LogDir           string `yaml:"log_dir"`
	Seed             uint64 `yaml:"seed"`
}

type Config struct {
	Model Hyperparams `yaml:"model"`
	Train Training    `yaml:"train"`
}

func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		Topics:       15,
		Embedding:    100,
		BatchSize:    500,
		Window:       5,
		LearningRate: 1e-3,
		DropoutRatio: 0.8,
		WordDropout:  0.8,
		Power:        0.75,
		Samples:      50,
		Temperature:  1.0,
		Lambda:       200.0,
		Alpha:        0,
	}
}

func DefaultTraining() Training {
	return Training{
		MaxEpochs:        0,
		LossSwitchEpochs: 0,
		Save:             false,
		SaveEvery:        1000,
		Summarize:        true,
		SummarizeEvery:   1000,
		LogEvery:         1000,
		OutDir:           "./out",
		LogDir:           "./log",
		Seed:             1,
	}
}

func Default() Config {
	return Config{
		Model: DefaultHyperparams(),
		Train: DefaultTraining(),
	}
}

// Load reads a YAML file on top of the defaults, keys missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// EffectiveAlpha resolves the default concentration 1/Topics.
func (h Hyperparams) EffectiveAlpha() float64 {
	if h.Alpha > 0 {
		return h.Alpha
	}
	return 1.0 / float64(h.Topics)
}

func (h Hyperparams) Validate() error {
	switch {
	case h.Topics <= 0:
		return fmt.Errorf("%w: n_document_topics %d", ErrInvalid, h.Topics)
	case h.Embedding <= 0:
		return fmt.Errorf("%w: n_embedding %d", ErrInvalid, h.Embedding)
	case h.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size %d", ErrInvalid, h.BatchSize)
	case h.Window <= 0:
		return fmt.Errorf("%w: window %d", ErrInvalid, h.Window)
	case h.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate %g", ErrInvalid, h.LearningRate)
	case h.DropoutRatio <= 0 || h.DropoutRatio > 1:
		return fmt.Errorf("%w: dropout_ratio %g not in (0, 1]", ErrInvalid, h.DropoutRatio)
	case h.WordDropout <= 0 || h.WordDropout > 1:
		return fmt.Errorf("%w: word_dropout %g not in (0, 1]", ErrInvalid, h.WordDropout)
	case h.Samples <= 0:
		return fmt.Errorf("%w: n_samples %d", ErrInvalid, h.Samples)
	case h.Temperature <= 0:
		return fmt.Errorf("%w: temperature %g", ErrInvalid, h.Temperature)
	case h.Lambda < 0:
		return fmt.Errorf("%w: lmbda %g", ErrInvalid, h.Lambda)
	case h.Alpha < 0:
		return fmt.Errorf("%w: alpha %g", ErrInvalid, h.Alpha)
	}
	return nil
}

func (t Training) Validate() error {
	switch {
	case t.MaxEpochs < 0:
		return fmt.Errorf("%w: max_epochs %d", ErrInvalid, t.MaxEpochs)
	case t.LossSwitchEpochs < 0:
		return fmt.Errorf("%w: loss_switch_epochs %d", ErrInvalid, t.LossSwitchEpochs)
	case t.Save && t.SaveEvery <= 0:
		return fmt.Errorf("%w: save_every %d", ErrInvalid, t.SaveEvery)
	case t.Summarize && t.SummarizeEvery <= 0:
		return fmt.Errorf("%w: summarize_every %d", ErrInvalid, t.SummarizeEvery)
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	return c.Train.Validate()
}

// MarshalHyperparams renders h as YAML, the form stored in checkpoints.
func MarshalHyperparams(h Hyperparams) ([]byte, error) {
	return yaml.Marshal(h)
}

func UnmarshalHyperparams(data []byte) (Hyperparams, error) {
	h := DefaultHyperparams()
	if err := yaml.Unmarshal(data, &h); err != nil {
		return h, err
	}
	return h, h.Validate()
}
