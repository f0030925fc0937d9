package model

import (
	"math"

	"github.com/arsenuw/lda2vec/matrix"
)

// DirichletPrior scores topic proportions under a symmetric Dirichlet with
// concentration Alpha. Proportions are softmax(w/Temperature) of the
// document weights, the same rows DocTopicMixture produces.
type DirichletPrior struct {
	Alpha       float64
	Temperature float64
}

// LogLikelihood sums log Dir(π_d; α) over every document row of weights.
func (p DirichletPrior) LogLikelihood(weights *matrix.Float32Matrix) float64 {
	return p.Evaluate(weights, nil, 0)
}

// Evaluate returns the summed log-likelihood and, when grad is non-nil,
// adds scale times its gradient with respect to weights into grad.
func (p DirichletPrior) Evaluate(weights, grad *matrix.Float32Matrix, scale float64) float64 {
	docs, topics := weights.Shape()
	k := float64(topics)
	t := p.Temperature
	lgSum, _ := math.Lgamma(k * p.Alpha)
	lgOne, _ := math.Lgamma(p.Alpha)
	norm := lgSum - k*lgOne

	probs := make([]float64, topics)
	ll := 0.0
	for d := 0; d < docs; d += 1 {
		row := weights.Row(d)
		lse := logSumExp(row, t)
		sumLog := 0.0
		for j, v := range row {
			lp := float64(v)/t - lse
			sumLog += lp
			probs[j] = math.Exp(lp)
		}
		ll += norm + (p.Alpha-1)*sumLog

		if grad == nil {
			continue
		}
		// d/dw_j Σ_k (α-1) log π_k = (α-1)(1 - K π_j)/T
		g := grad.Row(d)
		for j := range g {
			g[j] += float32(scale * (p.Alpha - 1) * (1 - k*probs[j]) / t)
		}
	}
	return ll
}
