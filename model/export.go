package model

import (
	"github.com/arsenuw/lda2vec/matrix"
)

// serialize word embeddings
func (this *LDA2Vec) SaveWords(fn string) error {
	return matrix.Float32Serialize(this.WordEmbeddings(), fn+".words")
}

// serialize topic embeddings
func (this *LDA2Vec) SaveTopics(fn string) error {
	return matrix.Float32Serialize(this.TopicEmbeddings(), fn+".topics")
}

// serialize document embeddings
func (this *LDA2Vec) SaveDocs(fn string) error {
	return matrix.Float32Serialize(this.DocEmbeddings(), fn+".docs")
}

// serialize document-topic proportions
func (this *LDA2Vec) SaveTheta(fn string) error {
	return matrix.Float32Serialize(this.DocProportions(), fn+".theta")
}

// SaveAll writes every table with fn as the common prefix.
func (this *LDA2Vec) SaveAll(fn string) error {
	for _, save := range []func(string) error{
		this.SaveWords, this.SaveTopics, this.SaveDocs, this.SaveTheta,
	} {
		if err := save(fn); err != nil {
			return err
		}
	}
	return nil
}
