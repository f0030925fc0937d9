package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arsenuw/lda2vec/matrix"
)

// EmbeddingTable owns the V x E word embeddings. A fixed table is never
// handed to the optimizer.
type EmbeddingTable struct {
	W     *matrix.Float32Matrix
	Fixed bool
}

// NewEmbeddingTable draws every entry from Uniform(-1, 1).
func NewEmbeddingTable(vocab, dim int, src rand.Source) *EmbeddingTable {
	w := matrix.NewFloat32Matrix(vocab, dim)
	u := distuv.Uniform{Min: -1, Max: 1, Src: src}
	data := w.Data()
	for i := range data {
		data[i] = float32(u.Rand())
	}
	return &EmbeddingTable{W: w}
}

// NewPretrainedEmbeddingTable copies w so the caller's matrix is never
// updated in place.
func NewPretrainedEmbeddingTable(w *matrix.Float32Matrix, fixed bool) *EmbeddingTable {
	return &EmbeddingTable{W: w.Clone(), Fixed: fixed}
}

func (e *EmbeddingTable) Lookup(ids []int32) *matrix.Float32Matrix {
	return e.W.Gather(ids)
}

func (e *EmbeddingTable) Shape() (int, int) {
	return e.W.Shape()
}
