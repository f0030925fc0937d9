package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/arsenuw/lda2vec/checkpoint"
	"github.com/arsenuw/lda2vec/config"
	"github.com/arsenuw/lda2vec/corpus"
	"github.com/arsenuw/lda2vec/matrix"
	"github.com/arsenuw/lda2vec/model"
	"github.com/arsenuw/lda2vec/train"
)

var (
	trainCorpus       string
	trainConfig       string
	trainPretrained   string
	trainFixedWords   bool
	trainWord2VecOnly bool
	trainRestore      string
	trainStep         int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model on a corpus",
	Long: `Train a model on a corpus file.

Training runs for max_epochs epochs, or until interrupted when max_epochs is
0. An interrupt stops training between minibatches and still writes the
final checkpoint.

Examples:
  lda2vec train --corpus docs.txt --config lda2vec.yaml
  lda2vec train --corpus docs.txt --pretrained words.txt --fixed-words
  lda2vec train --corpus docs.txt --restore out/240101_0000_lda2vec.db`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainCorpus, "corpus", "", "corpus file, one document per line")
	trainCmd.Flags().StringVar(&trainConfig, "config", "", "YAML configuration, defaults when empty")
	trainCmd.Flags().StringVar(&trainPretrained, "pretrained", "", "pretrained word embeddings")
	trainCmd.Flags().BoolVar(&trainFixedWords, "fixed-words", false, "do not update the word embeddings")
	trainCmd.Flags().BoolVar(&trainWord2VecOnly, "word2vec-only", false, "train word embeddings only")
	trainCmd.Flags().StringVar(&trainRestore, "restore", "", "checkpoint file to continue from")
	trainCmd.Flags().Int64Var(&trainStep, "step", checkpoint.Latest, "checkpoint step to restore, latest when negative")
	trainCmd.MarkFlagRequired("corpus")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if trainConfig != "" {
		var err error
		if cfg, err = config.Load(trainConfig); err != nil {
			return err
		}
	}

	data := &corpus.Corpus{}
	if err := data.Load(trainCorpus); err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	m, run, err := buildModel(cfg, data)
	if err != nil {
		return err
	}

	session, err := train.NewSession(m, cfg.Train, run)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := session.Run(ctx, data.DocIDs, data.Tokens)
	if err != nil {
		return err
	}
	log.Infof("training %s after %d epochs, %d steps (global step %d)",
		res.Status, res.Epochs, res.Steps, res.GlobalStep)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", res.Status, res.GlobalStep, res.Checkpoint)
	return nil
}

func buildModel(cfg config.Config, data *corpus.Corpus) (model.Model, string, error) {
	if trainRestore != "" {
		m, run, err := train.Resume(trainRestore, trainStep, cfg.Train.Seed)
		if err != nil {
			return nil, "", err
		}
		return m, run, nil
	}

	nVocab := data.VocabSize
	opts := model.Options{
		FixedWords: trainFixedWords,
		Seed:       cfg.Train.Seed,
	}
	if trainPretrained != "" {
		w, err := matrix.Float32Deserialize(trainPretrained)
		if err != nil {
			return nil, "", fmt.Errorf("load pretrained embeddings: %w", err)
		}
		opts.Pretrained = w
		nVocab, _ = w.Shape()
	}
	freqs := data.Frequencies()
	if len(freqs) < nVocab {
		freqs = append(freqs, make([]float64, nVocab-len(freqs))...)
	}
	opts.Freqs = freqs[:nVocab]

	name := "lda2vec"
	if trainWord2VecOnly {
		name = "word2vec"
	}
	ctor, err := model.GetModel(name)
	if err != nil {
		return nil, "", err
	}
	m, err := ctor(data.DocNum, nVocab, cfg.Model, opts)
	if err != nil {
		return nil, "", err
	}
	return m, checkpoint.RunName(time.Now()), nil
}
