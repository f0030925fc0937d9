package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/model"
	"github.com/arsenuw/lda2vec/skipgram"
)

func trainedModel(t *testing.T) *model.LDA2Vec {
	t.Helper()
	hp := config.DefaultHyperparams()
	hp.Topics = 2
	hp.Embedding = 3
	hp.Samples = 2
	hp.LearningRate = 0.05
	m, err := model.New(2, 8, hp, model.Options{Seed: 4})
	require.NoError(t, err)
	m.SetSwitchThreshold(1)
	m.SetFraction(0.5)
	b := &skipgram.Batch{
		Pivots:  []int32{2, 3, 4},
		Docs:    []int32{0, 1, 1},
		Targets: []int32{3, 4, 5},
	}
	for i := 0; i < 3; i += 1 {
		m.Step(b)
	}
	return m
}

func TestRunNames(t *testing.T) {
	now := time.Date(2024, 3, 9, 17, 5, 0, 0, time.UTC)
	assert.Equal(t, "240309_1705", RunName(now))
	assert.Equal(t, "240101_0000_240309_1705", ContinuedRunName("240101_0000", now))
	assert.Equal(t, "240309_1705_lda2vec.db", FileName(RunName(now)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := trainedModel(t)

	s, err := Open(dir, "run")
	require.NoError(t, err)
	require.NoError(t, s.Save(m.Snapshot()))
	assert.NotEmpty(t, s.RunID())
	assert.Equal(t, filepath.Join(dir, "run_lda2vec.db"), s.Path())

	state, err := s.Load(3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, int64(3), state.Step)
	assert.Equal(t, int64(1), state.SwitchThreshold)
	assert.Equal(t, 0.5, state.Fraction)
	assert.Equal(t, m.Hyperparams(), state.Hyperparams)
	assert.Equal(t, 2, state.NDocs)
	assert.Equal(t, 8, state.NVocab)

	got, err := model.Restore(state, 1)
	require.NoError(t, err)
	assert.Equal(t, m.GlobalStep(), got.GlobalStep())
	assert.Equal(t, m.WordEmbeddings().Data(), got.WordEmbeddings().Data())
	assert.Equal(t, m.TopicEmbeddings().Data(), got.TopicEmbeddings().Data())
	assert.Equal(t, m.DocEmbeddings().Data(), got.DocEmbeddings().Data())
}

func TestLoadLatest(t *testing.T) {
	s, err := Open(t.TempDir(), "run")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(Latest)
	assert.ErrorIs(t, err, ErrNotFound)

	m := trainedModel(t)
	first := m.Snapshot()
	require.NoError(t, s.Save(first))
	m.Step(&skipgram.Batch{})
	require.NoError(t, s.Save(m.Snapshot()))
	// saving the same step again replaces it
	require.NoError(t, s.Save(m.Snapshot()))

	steps, err := s.Steps()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, steps)

	state, err := s.Load(Latest)
	require.NoError(t, err)
	assert.Equal(t, int64(4), state.Step)
	assert.Len(t, state.Params, len(first.Params))

	_, err = s.Load(7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsRunID(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "run")
	require.NoError(t, err)
	id := s.RunID()
	require.NoError(t, s.Close())

	s, err = Open(dir, "run")
	require.NoError(t, err)
	assert.Equal(t, id, s.RunID())
	require.NoError(t, s.Close())
}

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, "240101_0000")
	require.NoError(t, err)
	require.NoError(t, s.Save(trainedModel(t).Snapshot()))
	require.NoError(t, s.Close())

	state, run, err := Restore(s.Path(), Latest)
	require.NoError(t, err)
	assert.Equal(t, "240101_0000", run)
	assert.Equal(t, int64(3), state.Step)

	_, _, err = Restore(filepath.Join(dir, "missing.db"), Latest)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = Restore(s.Path(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database file at all, not even close"), 0644))

	_, _, err := Restore(path, Latest)
	assert.Error(t, err)
}

func TestLoadStepZero(t *testing.T) {
	s, err := Open(t.TempDir(), "run")
	require.NoError(t, err)
	defer s.Close()

	hp := config.DefaultHyperparams()
	hp.Topics = 2
	hp.Embedding = 3
	m, err := model.New(2, 8, hp, model.Options{Seed: 4})
	require.NoError(t, err)
	untrained := m.Snapshot()
	require.NoError(t, s.Save(untrained))
	require.NoError(t, s.Save(trainedModel(t).Snapshot()))

	state, err := s.Load(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), state.Step)
	assert.Equal(t, untrained.Params[model.ParamWords].Data(), state.Params[model.ParamWords].Data())

	state, err = s.Load(Latest)
	require.NoError(t, err)
	assert.Equal(t, int64(3), state.Step)
}
