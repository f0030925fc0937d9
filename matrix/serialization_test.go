package matrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat32SerializeKeepsSignedValues(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "words.txt")
	m := NewFloat32MatrixFrom(2, 3, []float32{-1.5, 0, 2, 0, 0.25, -3})

	require.NoError(t, Float32Serialize(m, fn))
	got, err := Float32Deserialize(fn)
	require.NoError(t, err)

	assert.Equal(t, m.Data(), got.Data())
}

func TestFloat32DeserializeBadShape(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(fn, []byte("3\n"), 0o644))

	_, err := Float32Deserialize(fn)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestBinaryCodec(t *testing.T) {
	m := NewFloat32MatrixFrom(2, 2, []float32{1, -2, 3.5, 0})

	buf, err := m.MarshalBinary()
	require.NoError(t, err)

	var got Float32Matrix
	require.NoError(t, got.UnmarshalBinary(buf))
	r, c := got.Shape()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, m.Data(), got.Data())

	assert.ErrorIs(t, got.UnmarshalBinary(buf[:len(buf)-1]), ErrCorrupted)
}
