package train

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arsenuw/lda2vec/checkpoint"
	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/model"
	"github.com/arsenuw/lda2vec/skipgram"
	"github.com/arsenuw/lda2vec/summary"
)

// two documents of ten tokens, ids above the reserved floor
func testCorpus() ([]int32, []int32) {
	docs := make([]int32, 20)
	words := make([]int32, 20)
	for i := range words {
		docs[i] = int32(i / 10)
		words[i] = int32(2 + i%8)
	}
	return docs, words
}

func testModel(t *testing.T) *model.LDA2Vec {
	t.Helper()
	hp := config.DefaultHyperparams()
	hp.Topics = 2
	hp.Embedding = 4
	hp.BatchSize = 8
	hp.Window = 1
	hp.Samples = 2
	m, err := model.New(2, 10, hp, model.Options{Seed: 1})
	require.NoError(t, err)
	return m
}

func testSettings(t *testing.T) config.Training {
	s := config.DefaultTraining()
	s.MaxEpochs = 2
	s.LossSwitchEpochs = 1
	s.Save = false
	s.Summarize = false
	s.LogEvery = 2
	s.OutDir = t.TempDir()
	s.LogDir = t.TempDir()
	return s
}

// cancelAfter stops the run once n steps have been taken.
type cancelAfter struct {
	model.Model
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Step(b *skipgram.Batch) model.StepResult {
	r := c.Model.Step(b)
	c.n -= 1
	if c.n == 0 {
		c.cancel()
	}
	return r
}

func TestRunCompletes(t *testing.T) {
	m := testModel(t)
	s, err := NewSession(m, testSettings(t), "run")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "run", s.RunName)

	docs, words := testCorpus()
	res, err := s.Run(context.Background(), docs, words)
	require.NoError(t, err)

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, 2, res.Epochs)
	assert.Equal(t, int64(6), res.Steps)
	assert.Equal(t, int64(6), res.GlobalStep)
	assert.Equal(t, int64(3), m.SwitchThreshold())
	assert.Equal(t, 0.4, m.Fraction())
	assert.Equal(t, model.PhaseBlended, m.Phase())
	assert.Empty(t, res.Checkpoint)
	assert.Greater(t, res.Losses.NCE, 0.0)
}

func TestRunCadence(t *testing.T) {
	settings := testSettings(t)
	settings.Save = true
	settings.SaveEvery = 2
	settings.Summarize = true
	settings.SummarizeEvery = 3
	s, err := NewSession(testModel(t), settings, "run")
	require.NoError(t, err)
	defer s.Close()

	docs, words := testCorpus()
	res, err := s.Run(context.Background(), docs, words)
	require.NoError(t, err)
	assert.Equal(t, s.Checkpoints().Path(), res.Checkpoint)

	steps, err := s.Checkpoints().Steps()
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6}, steps)

	pts, err := s.Summaries().Scalars(summary.TagLossNCE)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, int64(3), pts[0].Step)
	assert.Equal(t, int64(6), pts[1].Step)
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &cancelAfter{Model: testModel(t), n: 4, cancel: cancel}

	settings := testSettings(t)
	settings.MaxEpochs = 0
	settings.Save = true
	settings.SaveEvery = 100
	s, err := NewSession(m, settings, "run")
	require.NoError(t, err)
	defer s.Close()

	docs, words := testCorpus()
	res, err := s.Run(ctx, docs, words)
	require.NoError(t, err)

	assert.Equal(t, Interrupted, res.Status)
	assert.Equal(t, 1, res.Epochs)
	assert.Equal(t, int64(4), res.Steps)

	// the final checkpoint is still written
	steps, err := s.Checkpoints().Steps()
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, steps)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := NewSession(testModel(t), testSettings(t), "run")
	require.NoError(t, err)
	defer s.Close()

	docs, words := testCorpus()
	res, err := s.Run(ctx, docs, words)
	require.NoError(t, err)
	assert.Equal(t, Interrupted, res.Status)
	assert.Equal(t, int64(0), res.Steps)
	assert.Equal(t, 0, res.Epochs)
}

func TestRunRejectsBadInput(t *testing.T) {
	s, err := NewSession(testModel(t), testSettings(t), "run")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Run(context.Background(), []int32{0}, []int32{2, 3})
	assert.ErrorIs(t, err, ErrInput)

	_, err = s.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInput)

	_, err = s.Run(context.Background(), []int32{0, 2}, []int32{2, 3})
	assert.ErrorIs(t, err, ErrInput)

	_, err = s.Run(context.Background(), []int32{0, 1}, []int32{2, 10})
	assert.ErrorIs(t, err, ErrInput)
}

func TestResume(t *testing.T) {
	settings := testSettings(t)
	settings.Save = true
	settings.SaveEvery = 100
	first := testModel(t)
	s, err := NewSession(first, settings, "240101_0000")
	require.NoError(t, err)
	docs, words := testCorpus()
	res, err := s.Run(context.Background(), docs, words)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	m, run, err := Resume(res.Checkpoint, checkpoint.Latest, 7)
	require.NoError(t, err)
	assert.Contains(t, run, "240101_0000_")
	assert.Equal(t, int64(6), m.GlobalStep())
	assert.Equal(t, first.WordEmbeddings().Data(), m.WordEmbeddings().Data())

	settings.MaxEpochs = 1
	s, err = NewSession(m, settings, run)
	require.NoError(t, err)
	defer s.Close()
	res, err = s.Run(context.Background(), docs, words)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Steps)
	assert.Equal(t, int64(9), res.GlobalStep)

	_, _, err = Resume(res.Checkpoint+".missing", checkpoint.Latest, 7)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "interrupted", Interrupted.String())
}
