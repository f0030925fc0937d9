package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
)

var ErrLengthMismatch = errors.New("corpus: document and token streams differ in length")

// Corpus is a flattened token stream with a parallel stream holding the
// document id of every token. Token order inside a document is preserved.
type Corpus struct {
	VocabSize int
	DocNum    int
	DocIDs    []int32
	Tokens    []int32
}

// New wraps already tokenized parallel streams. Sizes are derived from the
// largest ids seen.
func New(docIDs, tokens []int32) (*Corpus, error) {
	if len(docIDs) != len(tokens) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(docIDs), len(tokens))
	}
	c := &Corpus{DocIDs: docIDs, Tokens: tokens}
	for i := range tokens {
		c.observe(docIDs[i], tokens[i])
	}
	return c, nil
}

func (this *Corpus) observe(doc, tok int32) {
	if int(doc)+1 > this.DocNum {
		this.DocNum = int(doc) + 1
	}
	if int(tok)+1 > this.VocabSize {
		this.VocabSize = int(tok) + 1
	}
}

// load training data from file, the file format should be like:
// [docId wordId wordId ... wordId]
// with one document per line and words in their original order.
// An error is returned if docId or wordId cannot be parsed to a
// non-negative int32
func (this *Corpus) Load(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo += 1
		doc := scanner.Text()
		vals := strings.Fields(doc)
		if len(vals) < 2 {
			log.Warningf("bad document at line %d: %q", lineNo, doc)
			continue
		}

		docId, err := strconv.ParseInt(vals[0], 10, 32)
		if err != nil || docId < 0 {
			return fmt.Errorf("line %d: bad document id %q", lineNo, vals[0])
		}

		for _, v := range vals[1:] {
			wordId, err := strconv.ParseInt(v, 10, 32)
			if err != nil || wordId < 0 {
				return fmt.Errorf("line %d: bad word id %q", lineNo, v)
			}
			this.DocIDs = append(this.DocIDs, int32(docId))
			this.Tokens = append(this.Tokens, int32(wordId))
			this.observe(int32(docId), int32(wordId))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	log.Infof("number of documents %d", this.DocNum)
	log.Infof("vocabulary size %d", this.VocabSize)
	log.Infof("number of tokens %d", len(this.Tokens))
	return nil
}

// Len is the number of tokens in the corpus.
func (this *Corpus) Len() int {
	return len(this.Tokens)
}

// Frequencies counts every word id over the vocabulary.
func (this *Corpus) Frequencies() []float64 {
	freqs := make([]float64, this.VocabSize)
	for _, w := range this.Tokens {
		freqs[w] += 1
	}
	return freqs
}
