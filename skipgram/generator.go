// Package skipgram turns a flattened token stream and its parallel document
// stream into windowed (pivot, document, target) training examples.
package skipgram

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// InvalidTarget replaces targets that cross a document boundary or
	// were dropped by word dropout.
	InvalidTarget int32 = -1
	// DefaultLastOOV is the largest reserved id; pivots and targets at or
	// below it never reach training.
	DefaultLastOOV int32 = 1
)

// Example is one (pivot, document, target) attempt. Position is the index
// of the pivot in the input stream.
type Example struct {
	Position int
	Pivot    int32
	Doc      int32
	Target   int32
	Valid    bool
}

// Batch is the masked column form consumed by the model.
type Batch struct {
	Pivots  []int32
	Docs    []int32
	Targets []int32
}

func (b *Batch) Len() int {
	return len(b.Pivots)
}

type Generator struct {
	Window int
	// keep probability of a valid target, 1 disables dropout
	WordDropout float64
	LastOOV     int32

	keep distuv.Bernoulli
}

func NewGenerator(window int, wordDropout float64, src rand.Source) *Generator {
	return &Generator{
		Window:      window,
		WordDropout: wordDropout,
		LastOOV:     DefaultLastOOV,
		keep:        distuv.Bernoulli{P: wordDropout, Src: src},
	}
}

// Generate emits 2*Window attempts for every pivot position in
// [Window, N-Window), frame by frame from -Window to Window. docIDs and
// tokens must have the same length.
func (g *Generator) Generate(docIDs, tokens []int32) []Example {
	w := g.Window
	n := min(len(docIDs), len(tokens))
	start, end := w, n-w
	if end <= start {
		return nil
	}

	examples := make([]Example, 0, 2*w*(end-start))
	for frame := -w; frame <= w; frame += 1 {
		// skip predicting the pivot itself
		if frame == 0 {
			continue
		}
		for p := start; p < end; p += 1 {
			ex := Example{
				Position: p,
				Pivot:    tokens[p],
				Doc:      docIDs[p],
				Target:   tokens[p+frame],
				Valid:    true,
			}
			sameDoc := docIDs[p+frame] == docIDs[p]
			kept := g.keep.Rand() == 1
			if !sameDoc || !kept {
				ex.Target = InvalidTarget
				ex.Valid = false
			}
			examples = append(examples, ex)
		}
	}
	return examples
}

// Mask keeps the examples whose pivot and target are both above LastOOV.
// Invalidated targets are dropped with them. The result may be empty.
func (g *Generator) Mask(examples []Example) *Batch {
	b := &Batch{}
	for _, ex := range examples {
		if ex.Target <= g.LastOOV || ex.Pivot <= g.LastOOV {
			continue
		}
		b.Pivots = append(b.Pivots, ex.Pivot)
		b.Docs = append(b.Docs, ex.Doc)
		b.Targets = append(b.Targets, ex.Target)
	}
	return b
}

// Batch generates and masks one minibatch.
func (g *Generator) Batch(docIDs, tokens []int32) *Batch {
	return g.Mask(g.Generate(docIDs, tokens))
}
