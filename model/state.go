package model

import (
	"fmt"

	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/matrix"
)

// State is everything needed to rebuild a model: sizes, mode flags,
// counters and a copy of every parameter keyed by its Param* name.
type State struct {
	Hyperparams     config.Hyperparams
	NDocs           int
	NVocab          int
	FixedWords      bool
	Word2VecOnly    bool
	Step            int64
	SwitchThreshold int64
	Fraction        float64
	Params          map[string]*matrix.Float32Matrix
}

func (this *LDA2Vec) Snapshot() *State {
	params := map[string]*matrix.Float32Matrix{
		ParamWords:      this.words.W.Clone(),
		ParamNCEWeights: this.sampling.Weights.Clone(),
		ParamNCEBiases:  this.sampling.Biases.Clone(),
		ParamDocWeights: this.mixture.Weights.Clone(),
		ParamTopics:     this.mixture.Factors.Clone(),
	}
	if this.freqs != nil {
		freqs := make([]float32, len(this.freqs))
		for i, f := range this.freqs {
			freqs[i] = float32(f)
		}
		params[ParamFreqs] = matrix.NewFloat32MatrixFrom(1, len(freqs), freqs)
	}
	return &State{
		Hyperparams:     this.hp,
		NDocs:           this.nDocs,
		NVocab:          this.nVocab,
		FixedWords:      this.fixedWords,
		Word2VecOnly:    this.word2vecOnly,
		Step:            this.step,
		SwitchThreshold: this.schedule.Threshold,
		Fraction:        this.fraction,
		Params:          params,
	}
}

// Restore rebuilds a model from a snapshot. Optimizer moments are not part
// of the state and start from zero.
func Restore(s *State, seed uint64) (*LDA2Vec, error) {
	words, ok := s.Params[ParamWords]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrBadState, ParamWords)
	}
	opts := Options{
		Pretrained:   words,
		FixedWords:   s.FixedWords,
		Word2VecOnly: s.Word2VecOnly,
		Seed:         seed,
	}
	if f, ok := s.Params[ParamFreqs]; ok {
		opts.Freqs = make([]float64, len(f.Data()))
		for i, v := range f.Data() {
			opts.Freqs[i] = float64(v)
		}
	}

	this, err := New(s.NDocs, s.NVocab, s.Hyperparams, opts)
	if err != nil {
		return nil, err
	}
	targets := map[string]*matrix.Float32Matrix{
		ParamNCEWeights: this.sampling.Weights,
		ParamNCEBiases:  this.sampling.Biases,
		ParamDocWeights: this.mixture.Weights,
		ParamTopics:     this.mixture.Factors,
	}
	for name, dst := range targets {
		src, ok := s.Params[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrBadState, name)
		}
		sr, sc := src.Shape()
		dr, dc := dst.Shape()
		if sr != dr || sc != dc {
			return nil, fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrBadState, name, sr, sc, dr, dc)
		}
		copy(dst.Data(), src.Data())
	}

	this.step = s.Step
	this.schedule.Threshold = s.SwitchThreshold
	this.fraction = s.Fraction
	return this, nil
}
