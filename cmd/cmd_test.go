package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestTrainSimilarExport(t *testing.T) {
	dir := t.TempDir()
	corpusFile := filepath.Join(dir, "docs.txt")
	require.NoError(t, os.WriteFile(corpusFile, []byte(
		"0 2 3 4 5 6 7 8 9 2 3\n1 4 5 6 7 8 9 2 3 4 5\n"), 0644))
	configFile := filepath.Join(dir, "lda2vec.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
model:
  n_document_topics: 2
  n_embedding: 4
  batch_size: 8
  window: 1
  n_samples: 2
train:
  max_epochs: 1
  save: true
  save_every: 100
  summarize: false
  out_dir: `+filepath.Join(dir, "out")+`
  log_dir: `+filepath.Join(dir, "log")+`
`), 0644))

	fields := strings.Fields(execute(t, "train", "--corpus", corpusFile, "--config", configFile))
	require.Len(t, fields, 3)
	assert.Equal(t, "completed", fields[0])
	assert.Equal(t, "3", fields[1])
	db := fields[2]
	assert.FileExists(t, db)

	out := execute(t, "similar", "--checkpoint", db, "--in", "word", "--out", "topic", "--k", "5", "2", "3")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "word 2:"))
	// k is capped at the two topics
	assert.Equal(t, 2, strings.Count(lines[0], "("))

	prefix := strings.TrimSpace(execute(t, "export", "--checkpoint", db, "--dir", filepath.Join(dir, "export")))
	for _, suffix := range []string{".words", ".topics", ".docs", ".theta"} {
		assert.FileExists(t, prefix+suffix)
	}

	rootCmd.SetArgs([]string{"similar", "--checkpoint", db, "--in", "doc", "--out", "word", "0"})
	assert.Error(t, rootCmd.Execute())
}
