package utils

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 0.0,
		},
		{
			name:     "parallel scaled vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 1.0,
		},
		{
			name:     "different lengths",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "nil vectors",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestDotProduct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "basic",
			a:        []float32{1, 2, 3},
			b:        []float32{4, 5, 6},
			expected: 32,
		},
		{
			name:     "length mismatch",
			a:        []float32{1, 2},
			b:        []float32{1},
			expected: 0,
		},
		{
			name:     "empty",
			a:        nil,
			b:        nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DotProduct(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("DotProduct(%v, %v) = %v, expected %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestNormalizeL2(t *testing.T) {
	t.Parallel()

	t.Run("unit length after normalization", func(t *testing.T) {
		v := NormalizeL2([]float32{3, 4})
		var norm float64
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
			t.Errorf("norm = %v, expected 1.0", math.Sqrt(norm))
		}
		if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
			t.Errorf("NormalizeL2([3 4]) = %v, expected [0.6 0.8]", v)
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		in := []float32{0, 0, 0}
		out := NormalizeL2(in)
		for i := range out {
			if out[i] != 0 {
				t.Errorf("expected zero vector to pass through, got %v", out)
				break
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if out := NormalizeL2(nil); out != nil {
			t.Errorf("expected nil for nil input, got %v", out)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeL2(in)
		if in[0] != 3 || in[1] != 4 {
			t.Errorf("input mutated: %v", in)
		}
	})
}

func TestTopKByScore(t *testing.T) {
	t.Parallel()

	items := []ScoredItem[string]{
		{Item: "low", Score: 0.1},
		{Item: "high", Score: 0.9},
		{Item: "mid", Score: 0.5},
		{Item: "higher", Score: 0.95},
	}

	t.Run("k smaller than n", func(t *testing.T) {
		top := TopKByScore(items, 2)
		if len(top) != 2 {
			t.Fatalf("expected 2 items, got %d", len(top))
		}
		if top[0].Item != "higher" || top[1].Item != "high" {
			t.Errorf("unexpected order: %v, %v", top[0].Item, top[1].Item)
		}
	})

	t.Run("k larger than n returns all sorted", func(t *testing.T) {
		top := TopKByScore(items, 10)
		if len(top) != len(items) {
			t.Fatalf("expected %d items, got %d", len(items), len(top))
		}
		for i := 1; i < len(top); i++ {
			if top[i].Score > top[i-1].Score {
				t.Errorf("not descending at %d: %v > %v", i, top[i].Score, top[i-1].Score)
			}
		}
	})

	t.Run("k zero", func(t *testing.T) {
		if top := TopKByScore(items, 0); top != nil {
			t.Errorf("expected nil, got %v", top)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if top := TopKByScore[string](nil, 3); top != nil {
			t.Errorf("expected nil, got %v", top)
		}
	})

	t.Run("equal scores keep input order", func(t *testing.T) {
		ties := []ScoredItem[string]{
			{Item: "first", Score: 0.5},
			{Item: "second", Score: 0.5},
			{Item: "third", Score: 0.5},
		}
		top := TopKByScore(ties, 3)
		if top[0].Item != "first" || top[1].Item != "second" || top[2].Item != "third" {
			t.Errorf("tie order not stable: %v", top)
		}
	})
}

func TestTopKIndicesByScore(t *testing.T) {
	t.Parallel()

	scores := []float64{0.3, 0.9, 0.1, 0.7}
	indices := TopKIndicesByScore(scores, 2)
	if len(indices) != 2 {
		t.Fatalf("expected 2 indices, got %d", len(indices))
	}
	if indices[0] != 1 || indices[1] != 3 {
		t.Errorf("expected [1 3], got %v", indices)
	}

	if got := TopKIndicesByScore(nil, 2); got != nil {
		t.Errorf("expected nil for empty scores, got %v", got)
	}
}
