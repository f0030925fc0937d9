package model

import (
	"fmt"

	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/matrix"
	"github.com/arsenuw/lda2vec/skipgram"
)

var constructors = make(map[string]ModelCtor)

// the common interface the training loop drives
type Model interface {
	// run one optimizer step on a masked minibatch
	Step(b *skipgram.Batch) StepResult
	// number of steps executed so far
	GlobalStep() int64
	// phase the next step will run in
	Phase() Phase
	SwitchThreshold() int64
	SetSwitchThreshold(n int64)
	Fraction() float64
	SetFraction(f float64)
	Hyperparams() config.Hyperparams
	// moving averages of the loss terms
	Averages() Losses
	WordEmbeddings() *matrix.Float32Matrix
	TopicEmbeddings() *matrix.Float32Matrix
	DocEmbeddings() *matrix.Float32Matrix
	DocProportions() *matrix.Float32Matrix
	// copy of every parameter and counter needed to rebuild the model
	Snapshot() *State
}

// new model variants should register themselves using this function
func Register(modelType string, m ModelCtor) {
	constructors[modelType] = m
}

type ModelCtor func(nDocs, nVocab int, hp config.Hyperparams, opts Options) (Model, error)

func GetModel(modelType string) (ModelCtor, error) {
	if _, ok := constructors[modelType]; !ok {
		return nil, fmt.Errorf("model %s not registered", modelType)
	}
	return constructors[modelType], nil
}
