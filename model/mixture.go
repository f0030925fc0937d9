package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arsenuw/lda2vec/matrix"
)

// DocTopicMixture represents every document as a mixture of topic vectors.
// Weights is D x K, Factors (the topic embeddings) is K x E.
type DocTopicMixture struct {
	Weights     *matrix.Float32Matrix
	Factors     *matrix.Float32Matrix
	Temperature float64
	// keep probability of the context dropout, 1 at inference
	Keep float64
}

func NewDocTopicMixture(docs, topics, dim int, temperature, keep float64, src rand.Source) *DocTopicMixture {
	w := matrix.NewFloat32Matrix(docs, topics)
	norm := distuv.Normal{Mu: 0, Sigma: 50 / math.Sqrt(float64(docs+topics)), Src: src}
	data := w.Data()
	for i := range data {
		data[i] = float32(norm.Rand())
	}
	return &DocTopicMixture{
		Weights:     w,
		Factors:     orthogonal(topics, dim, src),
		Temperature: temperature,
		Keep:        keep,
	}
}

func (m *DocTopicMixture) Topics() int {
	_, k := m.Weights.Shape()
	return k
}

// Proportions is softmax(w/T) for the rows of the given documents.
func (m *DocTopicMixture) Proportions(docIDs []int32) *matrix.Float32Matrix {
	if len(docIDs) == 0 {
		return nil
	}
	out := matrix.NewFloat32Matrix(len(docIDs), m.Topics())
	for i, d := range docIDs {
		softmax(out.Row(i), m.Weights.Row(int(d)), m.Temperature)
	}
	return out
}

// AllProportions is the D x K topic-proportion matrix.
func (m *DocTopicMixture) AllProportions() *matrix.Float32Matrix {
	docs, k := m.Weights.Shape()
	out := matrix.NewFloat32Matrix(docs, k)
	for d := 0; d < docs; d += 1 {
		softmax(out.Row(d), m.Weights.Row(d), m.Temperature)
	}
	return out
}

// Context projects the proportions of the given documents onto the topic
// embeddings.
func (m *DocTopicMixture) Context(docIDs []int32) *matrix.Float32Matrix {
	props := m.Proportions(docIDs)
	if props == nil {
		return nil
	}
	return matrix.MatMul(props, m.Factors)
}

// DocEmbeddings is the D x E matrix of document context vectors.
func (m *DocTopicMixture) DocEmbeddings() *matrix.Float32Matrix {
	return matrix.MatMul(m.AllProportions(), m.Factors)
}

// softmax writes softmax(w/temperature) into dst, computed in float64
func softmax(dst, w []float32, temperature float64) {
	lse := logSumExp(w, temperature)
	for k, v := range w {
		dst[k] = float32(math.Exp(float64(v)/temperature - lse))
	}
}

func logSumExp(w []float32, temperature float64) float64 {
	maxv := math.Inf(-1)
	for _, v := range w {
		if z := float64(v) / temperature; z > maxv {
			maxv = z
		}
	}
	sum := 0.0
	for _, v := range w {
		sum += math.Exp(float64(v)/temperature - maxv)
	}
	return maxv + math.Log(sum)
}

// orthogonal returns a rows x cols matrix with orthonormal rows (or
// columns when rows > cols) taken from the thin SVD of a gaussian matrix.
func orthogonal(rows, cols int, src rand.Source) *matrix.Float32Matrix {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = norm.Rand()
	}
	out := matrix.NewFloat32Matrix(rows, cols)

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(rows, cols, data), mat.SVDThin) {
		// keep the gaussian draw, scaled to unit variance per row
		scale := 1 / math.Sqrt(float64(cols))
		for i, v := range data {
			out.Data()[i] = float32(v * scale)
		}
		return out
	}

	var q mat.Dense
	if rows >= cols {
		svd.UTo(&q)
	} else {
		var v mat.Dense
		svd.VTo(&v)
		q.CloneFrom(v.T())
	}
	for i := 0; i < rows; i += 1 {
		for j := 0; j < cols; j += 1 {
			out.Set(i, j, float32(q.At(i, j)))
		}
	}
	return out
}
