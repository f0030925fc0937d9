package train

import (
	"context"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/arsenuw/lda2vec/corpus"
	"github.com/arsenuw/lda2vec/model"
)

var now = time.Now

type Status int

const (
	Completed Status = iota
	Interrupted
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Interrupted:
		return "interrupted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Result struct {
	Status Status
	// epochs fully processed by this run
	Epochs int
	// steps taken by this run
	Steps      int64
	GlobalStep int64
	// checkpoint file, empty when saving is disabled
	Checkpoint string
	// losses of the last non-empty step and their moving averages
	Losses   model.Losses
	Averages model.Losses
}

// Run trains over the parallel docIDs and tokens streams until
// Settings.MaxEpochs epochs are done or ctx is cancelled. Cancellation is
// observed between minibatches only; a final checkpoint and summary are
// written in both cases.
func (s *Session) Run(ctx context.Context, docIDs, tokens []int32) (*Result, error) {
	if err := s.validate(docIDs, tokens); err != nil {
		return nil, err
	}
	hp := s.Model.Hyperparams()
	n := len(tokens)
	perEpoch := corpus.NumChunks(n, hp.BatchSize)
	threshold := int64(perEpoch) * int64(s.Settings.LossSwitchEpochs)
	s.Model.SetFraction(float64(hp.BatchSize) / float64(n))
	s.Model.SetSwitchThreshold(threshold)
	log.Infof("%d tokens, %d minibatches per epoch, blended loss from step %d", n, perEpoch, threshold)

	res := &Result{Status: Completed}
	start := s.Model.GlobalStep()
	lastSaved, lastSummarized := int64(-1), int64(-1)

	log.Infof("------- Training begin: %s -------", now().Format(time.TimeOnly))
	var err error
	for s.Settings.MaxEpochs == 0 || res.Epochs < s.Settings.MaxEpochs {
		interrupted := false
		corpus.Chunks(hp.BatchSize, docIDs, tokens, func(docs, words []int32) bool {
			if ctx.Err() != nil {
				interrupted = true
				return false
			}
			t0 := now()
			r := s.Model.Step(s.Generator.Batch(docs, words))
			if !r.Skipped {
				res.Losses = r.Losses
			}
			step := s.Model.GlobalStep()

			if every := s.Settings.LogEvery; every > 0 && step%int64(every) == 0 {
				rate := float64(len(words)) / now().Sub(t0).Seconds()
				log.Infof("J:%05d E:%05d L_nce:%1.3e L_dirichlet:%1.3e R:%1.3e",
					step, res.Epochs, r.Losses.NCE, r.Losses.LDA, rate)
			} else {
				log.V(1).Infof("step %d phase %s examples %d loss %f", r.Step, r.Phase, r.Examples, r.Losses.Total)
			}

			save := s.store != nil && step%int64(s.Settings.SaveEvery) == 0
			summarize := s.summaries != nil && step%int64(s.Settings.SummarizeEvery) == 0
			if err = s.flush(step, res.Losses, save, summarize); err != nil {
				return false
			}
			if save {
				lastSaved = step
			}
			if summarize {
				lastSummarized = step
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if interrupted {
			res.Status = Interrupted
			break
		}
		res.Epochs += 1
	}

	step := s.Model.GlobalStep()
	log.Infof("epoch %d, max %d", res.Epochs, s.Settings.MaxEpochs)
	log.Infof("------- Training end: %s -------", now().Format(time.TimeOnly))

	err = s.flush(step, res.Losses,
		s.store != nil && lastSaved != step,
		s.summaries != nil && lastSummarized != step && step > start)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		res.Checkpoint = s.store.Path()
		log.Infof("checkpoint at step %d in %s", step, res.Checkpoint)
	}
	res.Steps = step - start
	res.GlobalStep = step
	res.Averages = s.Model.Averages()
	return res, nil
}

func (s *Session) validate(docIDs, tokens []int32) error {
	if len(docIDs) != len(tokens) {
		return fmt.Errorf("%w: %d document ids for %d tokens", ErrInput, len(docIDs), len(tokens))
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: empty corpus", ErrInput)
	}
	nDocs, _ := s.Model.DocProportions().Shape()
	nVocab, _ := s.Model.WordEmbeddings().Shape()
	for i := range tokens {
		if docIDs[i] < 0 || int(docIDs[i]) >= nDocs {
			return fmt.Errorf("%w: document id %d at %d, model has %d documents", ErrInput, docIDs[i], i, nDocs)
		}
		if tokens[i] < 0 || int(tokens[i]) >= nVocab {
			return fmt.Errorf("%w: token id %d at %d, model has %d words", ErrInput, tokens[i], i, nVocab)
		}
	}
	return nil
}

// flush writes the due checkpoint and summaries concurrently and returns
// once both are done. The model does not change until then.
func (s *Session) flush(step int64, last model.Losses, save, summarize bool) error {
	var g errgroup.Group
	if save {
		state := s.Model.Snapshot()
		g.Go(func() error {
			return s.store.Save(state)
		})
	}
	if summarize {
		g.Go(func() error {
			return s.summaries.WriteModel(step, s.Model, last)
		})
	}
	return g.Wait()
}
