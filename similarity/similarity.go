// Package similarity answers top-k cosine similarity queries across the
// word, topic and document embedding spaces of a trained model.
package similarity

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viterin/vek/vek32"

	"github.com/arsenuw/lda2vec/matrix"
)

var (
	ErrUnsupportedPair = errors.New("similarity: unsupported space pair")
	ErrUnknownSpace    = errors.New("similarity: unknown space")
	ErrBadID           = errors.New("similarity: id out of range")
	ErrBadK            = errors.New("similarity: k must be positive")
)

type Space string

const (
	Word  Space = "word"
	Topic Space = "topic"
	Doc   Space = "doc"
)

func ParseSpace(s string) (Space, error) {
	switch Space(s) {
	case Word, Topic, Doc:
		return Space(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSpace, s)
}

type pair struct {
	in, out Space
}

var supported = map[pair]bool{
	{Word, Word}:  true,
	{Word, Topic}: true,
	{Topic, Word}: true,
	{Doc, Doc}:    true,
}

type cacheKey struct {
	in, out Space
	id, k   int
}

type result struct {
	ids    []int
	scores []float32
}

// Engine holds unit-normalised copies of the three embedding tables. It
// is built eagerly and is read-only afterwards.
type Engine struct {
	spaces map[Space]*matrix.Float32Matrix
	cache  *lru.Cache[cacheKey, result]
}

// New normalises every row of the three tables. cacheSize <= 0 disables
// the result cache.
func New(word, topic, doc *matrix.Float32Matrix, cacheSize int) (*Engine, error) {
	e := &Engine{
		spaces: map[Space]*matrix.Float32Matrix{
			Word:  matrix.NormalizeRows(word),
			Topic: matrix.NormalizeRows(topic),
			Doc:   matrix.NormalizeRows(doc),
		},
	}
	if cacheSize > 0 {
		c, err := lru.New[cacheKey, result](cacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

// Supported reports whether (in, out) can be queried.
func Supported(in, out Space) bool {
	return supported[pair{in, out}]
}

// Query returns, for every id of space in, the k rows of space out with
// the highest cosine similarity in descending order, ties broken by the
// lower row index. k is capped at the number of rows of out.
func (e *Engine) Query(ids []int, in, out Space, k int) ([][]int, [][]float32, error) {
	if !Supported(in, out) {
		return nil, nil, fmt.Errorf("%w: (%s, %s)", ErrUnsupportedPair, in, out)
	}
	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrBadK, k)
	}
	src := e.spaces[in]
	dst := e.spaces[out]
	rows, _ := src.Shape()
	for _, id := range ids {
		if id < 0 || id >= rows {
			return nil, nil, fmt.Errorf("%w: %s %d of %d", ErrBadID, in, id, rows)
		}
	}
	n, _ := dst.Shape()
	k = min(k, n)

	topIDs := make([][]int, len(ids))
	topScores := make([][]float32, len(ids))
	for i, id := range ids {
		key := cacheKey{in: in, out: out, id: id, k: k}
		if e.cache != nil {
			if r, ok := e.cache.Get(key); ok {
				topIDs[i], topScores[i] = slices.Clone(r.ids), slices.Clone(r.scores)
				continue
			}
		}
		r := topK(src.Row(id), dst, k)
		if e.cache != nil {
			// callers own the returned rows
			e.cache.Add(key, result{ids: slices.Clone(r.ids), scores: slices.Clone(r.scores)})
		}
		topIDs[i], topScores[i] = r.ids, r.scores
	}
	return topIDs, topScores, nil
}

func topK(q []float32, space *matrix.Float32Matrix, k int) result {
	n, _ := space.Shape()
	scores := make([]float32, n)
	order := make([]int, n)
	for r := 0; r < n; r += 1 {
		scores[r] = vek32.Dot(q, space.Row(r))
		order[r] = r
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	res := result{
		ids:    make([]int, k),
		scores: make([]float32, k),
	}
	for i := 0; i < k; i += 1 {
		res.ids[i] = order[i]
		res.scores[i] = scores[order[i]]
	}
	return res
}
