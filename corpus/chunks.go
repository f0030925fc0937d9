package corpus

// Chunks calls fn with successive batchSize slices of the parallel
// streams in their original order; the last chunk may be shorter.
// Iteration stops early when fn returns false.
func Chunks(batchSize int, docIDs, tokens []int32, fn func(docs, words []int32) bool) {
	if batchSize <= 0 {
		return
	}
	n := min(len(docIDs), len(tokens))
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		if !fn(docIDs[start:end], tokens[start:end]) {
			return
		}
	}
}

// NumChunks is the number of minibatches Chunks yields for n tokens.
func NumChunks(n, batchSize int) int {
	if batchSize <= 0 || n <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}
