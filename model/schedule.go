package model

import "math"

// Phase selects which loss path a step runs.
type Phase int

const (
	// word objective only, the context is the pivot embedding
	PhaseWord2Vec Phase = iota
	// word objective plus the Dirichlet term, the context adds the document
	PhaseBlended
)

func (p Phase) String() string {
	switch p {
	case PhaseWord2Vec:
		return "word2vec"
	case PhaseBlended:
		return "blended"
	}
	return "unknown"
}

// Schedule switches from PhaseWord2Vec to PhaseBlended once the global step
// reaches Threshold. The switch is driven by the step alone and never
// reverts. A disabled schedule stays in PhaseWord2Vec forever.
type Schedule struct {
	Threshold int64
	Disabled  bool
}

func (s Schedule) Phase(step int64) Phase {
	if s.Disabled || step < s.Threshold {
		return PhaseWord2Vec
	}
	return PhaseBlended
}

// MovingAverage is a zero-debiased exponential moving average.
type MovingAverage struct {
	Decay float64

	biased float64
	n      int
}

func (a *MovingAverage) Update(x float64) {
	a.biased = a.Decay*a.biased + (1-a.Decay)*x
	a.n += 1
}

func (a *MovingAverage) Value() float64 {
	if a.n == 0 {
		return 0
	}
	return a.biased / (1 - math.Pow(a.Decay, float64(a.n)))
}
