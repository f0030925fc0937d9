package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arsenuw/lda2vec/checkpoint"
	"github.com/arsenuw/lda2vec/model"
	"github.com/arsenuw/lda2vec/similarity"
)

var (
	similarCheckpoint string
	similarStep       int64
	similarIn         string
	similarOut        string
	similarK          int
)

var similarCmd = &cobra.Command{
	Use:   "similar [ids...]",
	Short: "Find the nearest rows by cosine similarity",
	Long: `Find, for every id of the input space, the k most similar rows of the
output space. Supported pairs are word/word, word/topic, topic/word and
doc/doc.

Examples:
  lda2vec similar --checkpoint out/240101_0000_lda2vec.db --in word --out topic 12 40
  lda2vec similar --checkpoint out/240101_0000_lda2vec.db --in topic --out word --k 20 0 1 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().StringVar(&similarCheckpoint, "checkpoint", "", "checkpoint file")
	similarCmd.Flags().Int64Var(&similarStep, "step", checkpoint.Latest, "checkpoint step, latest when negative")
	similarCmd.Flags().StringVar(&similarIn, "in", "word", "input space: word, topic or doc")
	similarCmd.Flags().StringVar(&similarOut, "out", "word", "output space: word, topic or doc")
	similarCmd.Flags().IntVar(&similarK, "k", 10, "number of results per id")
	similarCmd.MarkFlagRequired("checkpoint")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	in, err := similarity.ParseSpace(similarIn)
	if err != nil {
		return err
	}
	out, err := similarity.ParseSpace(similarOut)
	if err != nil {
		return err
	}
	ids := make([]int, len(args))
	for i, a := range args {
		if ids[i], err = strconv.Atoi(a); err != nil {
			return fmt.Errorf("bad id %q: %w", a, err)
		}
	}

	m, err := restoreModel(similarCheckpoint, similarStep)
	if err != nil {
		return err
	}
	engine, err := m.Similarity(len(ids))
	if err != nil {
		return err
	}
	top, scores, err := engine.Query(ids, in, out, similarK)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, id := range ids {
		fmt.Fprintf(w, "%s %d:", in, id)
		for j := range top[i] {
			fmt.Fprintf(w, " %d(%.4f)", top[i][j], scores[i][j])
		}
		fmt.Fprintln(w)
	}
	return nil
}

func restoreModel(path string, step int64) (*model.LDA2Vec, error) {
	state, _, err := checkpoint.Restore(path, step)
	if err != nil {
		return nil, err
	}
	return model.Restore(state, 0)
}
