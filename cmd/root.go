// Package cmd implements the lda2vec command line.
package cmd

import (
	"flag"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lda2vec",
	Short: "Train and query lda2vec topic and word embeddings",
	Long: `lda2vec jointly learns word embeddings, topic embeddings and sparse
document-topic proportions from a tokenized corpus.

The corpus file holds one document per line: a document id followed by the
word ids of the document in their original order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog reads its flags from the standard flag set
		return flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func Execute() error {
	return rootCmd.Execute()
}
