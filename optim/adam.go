// Package optim applies gradient updates to named float32 parameters.
package optim

import (
	"math"

	"github.com/viterin/vek/vek32"

	"github.com/arsenuw/lda2vec/matrix"
)

// Param is a trainable tensor and the gradient accumulated for it during
// the current step. Value and Grad have the same shape.
type Param struct {
	Name  string
	Value *matrix.Float32Matrix
	Grad  *matrix.Float32Matrix
}

func NewParam(name string, value *matrix.Float32Matrix) *Param {
	r, c := value.Shape()
	return &Param{
		Name:  name,
		Value: value,
		Grad:  matrix.NewFloat32Matrix(r, c),
	}
}

// ZeroGrads clears every gradient before a new step.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		p.Grad.Zero()
	}
}

// GlobalNorm is the L2 norm of all gradients taken together.
func GlobalNorm(params []*Param) float64 {
	sum := 0.0
	for _, p := range params {
		g := p.Grad.Data()
		sum += float64(vek32.Dot(g, g))
	}
	return math.Sqrt(sum)
}

// ClipByGlobalNorm rescales all gradients so that their global norm does
// not exceed maxNorm and returns the norm measured before clipping.
func ClipByGlobalNorm(params []*Param, maxNorm float64) float64 {
	norm := GlobalNorm(params)
	if norm <= maxNorm || norm == 0 {
		return norm
	}
	scale := float32(maxNorm / norm)
	for _, p := range params {
		vek32.MulNumber_Inplace(p.Grad.Data(), scale)
	}
	return norm
}

// Adam keeps first and second moment estimates per parameter name.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t int64
	m map[string][]float32
	v map[string][]float32
}

func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		m:            make(map[string][]float32),
		v:            make(map[string][]float32),
	}
}

// Steps is the number of updates applied so far.
func (a *Adam) Steps() int64 {
	return a.t
}

// Update applies one bias-corrected Adam step to every parameter using
// its current gradient.
func (a *Adam) Update(params []*Param) {
	a.t += 1
	t := float64(a.t)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))
	b1, b2 := float32(a.Beta1), float32(a.Beta2)
	eps := a.Epsilon

	for _, p := range params {
		val := p.Value.Data()
		grad := p.Grad.Data()
		m, ok := a.m[p.Name]
		if !ok {
			m = make([]float32, len(val))
			a.m[p.Name] = m
		}
		v, ok := a.v[p.Name]
		if !ok {
			v = make([]float32, len(val))
			a.v[p.Name] = v
		}
		for i, g := range grad {
			m[i] = b1*m[i] + (1-b1)*g
			v[i] = b2*v[i] + (1-b2)*g*g
			val[i] -= float32(lr * float64(m[i]) / (math.Sqrt(float64(v[i])) + eps))
		}
	}
}
