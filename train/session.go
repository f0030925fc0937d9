// Package train drives an lda2vec model over a corpus: minibatch
// iteration, the loss switchover threshold, checkpoint and summary
// cadence, and graceful interruption.
package train

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	log "github.com/golang/glog"

	"github.com/arsenuw/lda2vec/checkpoint"
	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/model"
	"github.com/arsenuw/lda2vec/skipgram"
	"github.com/arsenuw/lda2vec/summary"
)

var ErrInput = errors.New("train: invalid training input")

// Session holds everything one training run needs. Resources acquired by
// NewSession are released by Close.
type Session struct {
	Model     model.Model
	Generator *skipgram.Generator
	Settings  config.Training
	RunName   string

	store     *checkpoint.Store
	summaries *summary.Writer
}

// NewSession opens the checkpoint store and summary writer the settings
// ask for. run names the checkpoint file and the summary subdirectory.
func NewSession(m model.Model, settings config.Training, run string) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	hp := m.Hyperparams()
	seed := settings.Seed
	s := &Session{
		Model:     m,
		Generator: skipgram.NewGenerator(hp.Window, hp.WordDropout, rand.NewPCG(seed, seed+1)),
		Settings:  settings,
		RunName:   run,
	}

	if settings.Save {
		store, err := checkpoint.Open(settings.OutDir, run)
		if err != nil {
			return nil, err
		}
		s.store = store
		log.Infof("checkpoints of run %s (%s) go to %s", run, store.RunID(), store.Path())
	}
	if settings.Summarize {
		w, err := summary.Open(filepath.Join(settings.LogDir, run))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.summaries = w
		log.Infof("summaries go to %s", w.Path())
	}
	return s, nil
}

// Checkpoints is the open checkpoint store, nil when saving is disabled.
func (s *Session) Checkpoints() *checkpoint.Store {
	return s.store
}

// Summaries is the open summary writer, nil when summaries are disabled.
func (s *Session) Summaries() *summary.Writer {
	return s.summaries
}

func (s *Session) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
		s.store = nil
	}
	if s.summaries != nil {
		errs = append(errs, s.summaries.Close())
		s.summaries = nil
	}
	return errors.Join(errs...)
}

// Resume rebuilds a model from a checkpoint file and names the run that
// continues it.
func Resume(path string, step int64, seed uint64) (*model.LDA2Vec, string, error) {
	state, run, err := checkpoint.Restore(path, step)
	if err != nil {
		return nil, "", err
	}
	m, err := model.Restore(state, seed)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", checkpoint.ErrCorrupt, err)
	}
	return m, checkpoint.ContinuedRunName(run, now()), nil
}
