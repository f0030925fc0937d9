package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32MatrixShape(t *testing.T) {
	m := NewFloat32Matrix(2, 3)

	r, c := m.Shape()

	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
}

func TestFloat32MatrixGet(t *testing.T) {
	m := NewFloat32Matrix(2, 3)

	val := float32(0.0)
	for r := 0; r < 2; r += 1 {
		for c := 0; c < 3; c += 1 {
			m.Set(r, c, val)
			val += float32(1.0)
		}
	}

	assert.Equal(t, float32(0), m.Get(0, 0))
	assert.Equal(t, float32(2), m.Get(0, 2))
	assert.Equal(t, float32(3), m.Get(1, 0))
	assert.Equal(t, float32(5), m.Get(1, 2))
	assert.Equal(t, []float32{3, 4, 5}, m.Row(1))
}

func TestFloat32MatrixBadIndex(t *testing.T) {
	m := NewFloat32Matrix(2, 2)

	assert.PanicsWithValue(t, ErrIndexOutOfRange, func() { m.Get(2, 0) })
	assert.PanicsWithValue(t, ErrIndexOutOfRange, func() { m.Set(0, -1, 1) })
	assert.PanicsWithValue(t, ErrBadShape, func() { NewFloat32Matrix(0, 3) })
}

func TestFloat32MatrixRowSharesStorage(t *testing.T) {
	m := NewFloat32Matrix(2, 2)
	m.Row(1)[0] = 7

	assert.Equal(t, float32(7), m.Get(1, 0))

	c := m.Clone()
	c.Set(1, 0, 1)
	assert.Equal(t, float32(7), m.Get(1, 0))
}

func TestFloat32MatrixGather(t *testing.T) {
	m := NewFloat32MatrixFrom(3, 2, []float32{0, 1, 2, 3, 4, 5})

	g := m.Gather([]int32{2, 0, 2})

	r, c := g.Shape()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float32{4, 5, 0, 1, 4, 5}, g.Data())
	assert.Nil(t, m.Gather(nil))
}
