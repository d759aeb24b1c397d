package utils

import (
	"container/heap"
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two float32
// vectors, accumulating in float64 for stability. It returns 0 when the
// vectors differ in length, are empty, or either has zero magnitude.
// The result lies in [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DotProduct computes the dot product of two float32 vectors in float64.
// Returns 0 when the vectors differ in length.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// NormalizeL2 returns a unit-length copy of v. Zero-magnitude or empty
// vectors are returned unchanged so callers never divide by zero.
func NormalizeL2(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// ScoredItem pairs an item with a relevance score for top-K selection.
type ScoredItem[T any] struct {
	Item  T
	Score float64
}

// scoreHeap is a min-heap over ScoredItem: the lowest score sits at the
// root so deciding whether a candidate beats the current top-K is O(1).
type scoreHeap[T any] []ScoredItem[T]

func (h scoreHeap[T]) Len() int           { return len(h) }
func (h scoreHeap[T]) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h scoreHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scoreHeap[T]) Push(x any) {
	*h = append(*h, x.(ScoredItem[T]))
}

func (h *scoreHeap[T]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopKByScore returns the k highest-scoring items in descending score
// order. It runs in O(n log k), which beats a full sort when k << n.
// When k covers all items, ties keep their input order.
func TopKByScore[T any](items []ScoredItem[T], k int) []ScoredItem[T] {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	if k >= len(items) {
		out := make([]ScoredItem[T], len(items))
		copy(out, items)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		return out
	}

	h := make(scoreHeap[T], 0, k)
	heap.Init(&h)
	for _, item := range items {
		if h.Len() < k {
			heap.Push(&h, item)
		} else if item.Score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, item)
		}
	}

	out := make([]ScoredItem[T], h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(ScoredItem[T])
	}
	return out
}

// TopKIndicesByScore returns the indices of the k highest scores in
// descending score order, for callers that need to reference back into
// the original slice.
func TopKIndicesByScore(scores []float64, k int) []int {
	if k <= 0 || len(scores) == 0 {
		return nil
	}

	items := make([]ScoredItem[int], len(scores))
	for i, s := range scores {
		items[i] = ScoredItem[int]{Item: i, Score: s}
	}

	top := TopKByScore(items, k)
	indices := make([]int, len(top))
	for i, item := range top {
		indices[i] = item.Item
	}
	return indices
}
