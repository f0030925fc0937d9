package model

import "errors"

var (
	ErrMissingSize              = errors.New("model: document count and vocabulary size must be positive")
	ErrFixedWordsNeedPretrained = errors.New("model: fixed word embeddings require pretrained vectors")
	ErrNothingToTrain           = errors.New("model: fixed words with word2vec only leaves nothing to train")
	ErrPretrainedVocab          = errors.New("model: pretrained embeddings must match the vocabulary size")
	ErrPretrainedDim            = errors.New("model: pretrained embeddings must match the embedding size")
	ErrFreqsVocab               = errors.New("model: word frequencies must cover the vocabulary")
	ErrEmptyFreqs               = errors.New("model: word frequencies sum to zero")
	ErrBadState                 = errors.New("model: inconsistent model state")
)
