package matrix

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// float32 vector summation
func Float32VectorSum(data []float32) float32 {
	sum := float32(0.0)
	for _, d := range data {
		sum += d
	}
	return sum
}

// L2Norm returns the euclidean norm of v.
func L2Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(vek32.Dot(v, v))))
}

// NormalizeRows returns a copy of m whose rows have unit L2 norm.
// All-zero rows stay zero.
func NormalizeRows(m *Float32Matrix) *Float32Matrix {
	out := m.Clone()
	for r := 0; r < out.nrow; r += 1 {
		row := out.Row(r)
		norm := L2Norm(row)
		if norm == 0 {
			continue
		}
		vek32.MulNumber_Inplace(row, 1/norm)
	}
	return out
}

// MatMul computes a @ b into a new matrix.
func MatMul(a, b *Float32Matrix) *Float32Matrix {
	if a.ncol != b.nrow {
		panic(ErrBadShape)
	}
	out := NewFloat32Matrix(a.nrow, b.ncol)
	for i := 0; i < a.nrow; i += 1 {
		dst := out.Row(i)
		for k, w := range a.Row(i) {
			if w == 0 {
				continue
			}
			Axpy(dst, w, b.Row(k))
		}
	}
	return out
}

// Axpy computes dst += a*x.
func Axpy(dst []float32, a float32, x []float32) {
	for i, v := range x {
		dst[i] += a * v
	}
}
