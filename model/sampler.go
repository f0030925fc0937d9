package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/viterin/vek/vek32"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arsenuw/lda2vec/matrix"
)

// UnigramSampler draws word ids from a categorical distribution fixed at
// construction: freqs^power renormalised, or uniform when freqs is nil.
type UnigramSampler struct {
	probs []float64
	dist  distuv.Categorical
}

func NewUnigramSampler(vocab int, freqs []float64, power float64, src rand.Source) (*UnigramSampler, error) {
	weights := make([]float64, vocab)
	if freqs == nil {
		for i := range weights {
			weights[i] = 1
		}
	} else {
		if len(freqs) != vocab {
			return nil, fmt.Errorf("%w: %d frequencies for %d words", ErrFreqsVocab, len(freqs), vocab)
		}
		for i, f := range freqs {
			if f < 0 {
				return nil, fmt.Errorf("%w: negative frequency for word %d", ErrFreqsVocab, i)
			}
			if f > 0 {
				weights[i] = math.Pow(f, power)
			}
		}
	}
	sum := floats.Sum(weights)
	if sum <= 0 {
		return nil, ErrEmptyFreqs
	}
	probs := make([]float64, vocab)
	floats.ScaleTo(probs, 1/sum, weights)
	return &UnigramSampler{
		probs: probs,
		dist:  distuv.NewCategorical(probs, src),
	}, nil
}

// Prob is the sampling probability of word id.
func (s *UnigramSampler) Prob(id int32) float64 {
	return s.probs[id]
}

// Sample draws n word ids with replacement.
func (s *UnigramSampler) Sample(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(s.dist.Rand())
	}
	return out
}

// NegativeSampling scores a context vector against output word vectors.
// Weights is V x E, Biases is 1 x V.
type NegativeSampling struct {
	Weights *matrix.Float32Matrix
	Biases  *matrix.Float32Matrix
	Samples int
	Sampler *UnigramSampler
}

func NewNegativeSampling(vocab, dim, samples int, sampler *UnigramSampler, src rand.Source) *NegativeSampling {
	w := matrix.NewFloat32Matrix(vocab, dim)
	sd := math.Sqrt(1 / float64(dim))
	norm := distuv.Normal{Mu: 0, Sigma: sd, Src: src}
	data := w.Data()
	for i := range data {
		// truncated at two standard deviations
		v := norm.Rand()
		for math.Abs(v) > 2*sd {
			v = norm.Rand()
		}
		data[i] = float32(v)
	}
	return &NegativeSampling{
		Weights: w,
		Biases:  matrix.NewFloat32Matrix(1, vocab),
		Samples: samples,
		Sampler: sampler,
	}
}

// Negatives draws the noise words shared by one minibatch.
func (ns *NegativeSampling) Negatives() []int32 {
	return ns.Sampler.Sample(ns.Samples)
}

// Loss is the mean over examples with a non-negative target of
//
//	-log σ(c·u_t + b_t) - Σ_n log σ(-(c·u_n + b_n))
//
// When dctx, gW and gB are non-nil the gradients of that mean with respect
// to the contexts, output weights and biases are added to them.
func (ns *NegativeSampling) Loss(ctx *matrix.Float32Matrix, targets, negatives []int32,
	dctx, gW, gB *matrix.Float32Matrix) float64 {
	valid := 0
	for _, t := range targets {
		if t >= 0 {
			valid += 1
		}
	}
	if valid == 0 {
		return 0
	}
	inv := 1 / float64(valid)
	bias := ns.Biases.Data()

	total := 0.0
	for i, t := range targets {
		if t < 0 {
			continue
		}
		c := ctx.Row(i)

		s := float64(vek32.Dot(c, ns.Weights.Row(int(t)))) + float64(bias[t])
		total += softplus(-s)
		ns.accumulate(i, t, (sigmoid(s)-1)*inv, c, dctx, gW, gB)

		for _, n := range negatives {
			s := float64(vek32.Dot(c, ns.Weights.Row(int(n)))) + float64(bias[n])
			total += softplus(s)
			ns.accumulate(i, n, sigmoid(s)*inv, c, dctx, gW, gB)
		}
	}
	return total * inv
}

func (ns *NegativeSampling) accumulate(i int, id int32, g float64, c []float32,
	dctx, gW, gB *matrix.Float32Matrix) {
	if g == 0 {
		return
	}
	g32 := float32(g)
	if dctx != nil {
		matrix.Axpy(dctx.Row(i), g32, ns.Weights.Row(int(id)))
	}
	if gW != nil {
		matrix.Axpy(gW.Row(int(id)), g32, c)
	}
	if gB != nil {
		gB.Data()[id] += g32
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// softplus(x) = log(1 + e^x) = -log σ(-x)
func softplus(x float64) float64 {
	return math.Max(x, 0) + math.Log1p(math.Exp(-math.Abs(x)))
}
