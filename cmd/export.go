package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arsenuw/lda2vec/checkpoint"
)

var (
	exportCheckpoint string
	exportStep       int64
	exportDir        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the learned tables as text matrices",
	Long: `Write the word, topic and document embeddings and the document-topic
proportions of a checkpoint as text matrices for inspection and plotting.

Files are named after the checkpoint with the suffixes .words, .topics,
.docs and .theta.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportCheckpoint, "checkpoint", "", "checkpoint file")
	exportCmd.Flags().Int64Var(&exportStep, "step", checkpoint.Latest, "checkpoint step, latest when negative")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.MarkFlagRequired("checkpoint")
}

func runExport(cmd *cobra.Command, args []string) error {
	m, err := restoreModel(exportCheckpoint, exportStep)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(exportCheckpoint), filepath.Ext(exportCheckpoint))
	prefix := filepath.Join(exportDir, fmt.Sprintf("%s_%d", base, m.GlobalStep()))
	if err := m.SaveAll(prefix); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prefix)
	return nil
}
