package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	freqs := []float64{0, 0, 5, 4, 3, 2, 1, 1, 1, 1}
	m, err := New(2, 10, testHyperparams(), Options{Freqs: freqs, Seed: 2})
	require.NoError(t, err)
	m.SetSwitchThreshold(2)
	m.SetFraction(0.5)
	for i := 0; i < 4; i += 1 {
		m.Step(testBatch())
	}

	s := m.Snapshot()
	got, err := Restore(s, 9)
	require.NoError(t, err)

	assert.Equal(t, int64(4), got.GlobalStep())
	assert.Equal(t, int64(2), got.SwitchThreshold())
	assert.Equal(t, 0.5, got.Fraction())
	assert.Equal(t, PhaseBlended, got.Phase())
	assert.Equal(t, m.WordEmbeddings().Data(), got.WordEmbeddings().Data())
	assert.Equal(t, m.TopicEmbeddings().Data(), got.TopicEmbeddings().Data())
	assert.Equal(t, m.DocEmbeddings().Data(), got.DocEmbeddings().Data())
	assert.Equal(t, m.Sampling().Weights.Data(), got.Sampling().Weights.Data())
	assert.InDelta(t, m.Sampling().Sampler.Prob(2), got.Sampling().Sampler.Prob(2), 1e-7)
	assert.False(t, got.FixedWords())

	// the snapshot is a copy
	m.Step(testBatch())
	assert.Equal(t, got.WordEmbeddings().Data(), s.Params[ParamWords].Data())
}

func TestRestoreMissingParam(t *testing.T) {
	m, err := New(2, 10, testHyperparams(), Options{Seed: 2})
	require.NoError(t, err)
	s := m.Snapshot()
	delete(s.Params, ParamTopics)

	_, err = Restore(s, 1)
	assert.ErrorIs(t, err, ErrBadState)
}
