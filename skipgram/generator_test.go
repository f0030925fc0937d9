package skipgram

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(window int, wordDropout float64) *Generator {
	return NewGenerator(window, wordDropout, rand.NewPCG(7, 11))
}

func sequence(n int, offset int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i) + offset
	}
	return out
}

func TestGenerateOneDocument(t *testing.T) {
	// 20 tokens of a single document, window 2
	g := newTestGenerator(2, 1.0)
	docs := make([]int32, 20)
	tokens := sequence(20, 10)

	examples := g.Generate(docs, tokens)

	pivots := 20 - 2*2
	require.Len(t, examples, 2*2*pivots)
	perPivot := map[int]int{}
	for _, ex := range examples {
		perPivot[ex.Position] += 1
	}
	assert.Len(t, perPivot, pivots)
	for pos, n := range perPivot {
		assert.Equal(t, 2*2, n, "pivot %d", pos)
	}

	b := g.Mask(examples)
	assert.LessOrEqual(t, b.Len(), len(examples))
	assert.Equal(t, len(examples), b.Len())
}

func TestGeneratePivotRange(t *testing.T) {
	g := newTestGenerator(3, 0.5)
	docs := make([]int32, 15)
	tokens := sequence(15, 2)

	for _, ex := range g.Generate(docs, tokens) {
		assert.GreaterOrEqual(t, ex.Position, 3)
		assert.Less(t, ex.Position, 15-3)
		assert.Equal(t, tokens[ex.Position], ex.Pivot)
	}
}

func TestGenerateNeverCrossesDocuments(t *testing.T) {
	g := newTestGenerator(2, 1.0)
	docs := []int32{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	tokens := sequence(len(docs), 5)
	docOf := map[int32]int32{}
	for i, tok := range tokens {
		docOf[tok] = docs[i]
	}

	invalid := 0
	for _, ex := range g.Generate(docs, tokens) {
		if !ex.Valid {
			assert.Equal(t, InvalidTarget, ex.Target)
			invalid += 1
			continue
		}
		assert.Equal(t, ex.Doc, docOf[ex.Target])
	}
	assert.Greater(t, invalid, 0)

	b := g.Batch(docs, tokens)
	for i := range b.Targets {
		assert.Equal(t, b.Docs[i], docOf[b.Targets[i]])
	}
}

func TestNoDropoutOnlyMasksDocumentBoundaries(t *testing.T) {
	g := newTestGenerator(2, 1.0)
	docs := []int32{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	tokens := sequence(len(docs), 5)

	for _, ex := range g.Generate(docs, tokens) {
		p := ex.Position
		target := -1
		for f := -2; f <= 2; f += 1 {
			if f != 0 && tokens[p+f] == ex.Target {
				target = p + f
			}
		}
		if ex.Valid {
			assert.GreaterOrEqual(t, target, 0)
			continue
		}
		// every invalid example must straddle the boundary
		crosses := false
		for f := -2; f <= 2; f += 1 {
			if docs[p+f] != docs[p] {
				crosses = true
			}
		}
		assert.True(t, crosses, "pivot %d dropped without a boundary", p)
	}
}

func TestWordDropoutDropsSomeTargets(t *testing.T) {
	g := newTestGenerator(2, 0.5)
	docs := make([]int32, 200)
	tokens := sequence(200, 5)

	examples := g.Generate(docs, tokens)
	invalid := 0
	for _, ex := range examples {
		if !ex.Valid {
			invalid += 1
		}
	}
	assert.Greater(t, invalid, len(examples)/4)
	assert.Less(t, invalid, 3*len(examples)/4)
}

func TestMaskDropsReservedIDs(t *testing.T) {
	g := newTestGenerator(1, 1.0)
	docs := make([]int32, 5)
	tokens := []int32{4, 1, 5, 0, 6}

	b := g.Batch(docs, tokens)

	for i := range b.Pivots {
		assert.Greater(t, b.Pivots[i], DefaultLastOOV)
		assert.Greater(t, b.Targets[i], DefaultLastOOV)
	}
	// pivots are 1, 5, 0; only 5 survives and both its neighbours are reserved
	assert.Equal(t, 0, b.Len())
}

func TestShortChunkIsEmpty(t *testing.T) {
	g := newTestGenerator(5, 1.0)

	examples := g.Generate(make([]int32, 6), sequence(6, 3))
	assert.Empty(t, examples)

	b := g.Mask(examples)
	assert.Equal(t, 0, b.Len())
}
