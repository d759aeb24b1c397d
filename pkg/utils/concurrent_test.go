package utils

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorRun(t *testing.T) {
	t.Parallel()

	t.Run("collects errors per index", func(t *testing.T) {
		boom := errors.New("boom")
		errs := NewExecutor(4).Run(context.Background(),
			func() error { return nil },
			func() error { return boom },
			func() error { return nil },
		)
		if len(errs) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(errs))
		}
		if errs[0] != nil || errs[2] != nil {
			t.Errorf("unexpected errors: %v", errs)
		}
		if !errors.Is(errs[1], boom) {
			t.Errorf("expected boom at index 1, got %v", errs[1])
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		var active, peak int32
		fns := make([]func() error, 10)
		for i := range fns {
			fns[i] = func() error {
				cur := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			}
		}
		NewExecutor(2).Run(context.Background(), fns...)
		if got := atomic.LoadInt32(&peak); got > 2 {
			t.Errorf("peak concurrency %d exceeded limit 2", got)
		}
	})

	t.Run("recovers panics", func(t *testing.T) {
		errs := NewExecutor(1).Run(context.Background(), func() error {
			panic("kaboom")
		})
		var panicErr *PanicError
		if !errors.As(errs[0], &panicErr) {
			t.Fatalf("expected *PanicError, got %v", errs[0])
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		started := make(chan struct{})
		blocker := func() error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			return nil
		}
		// One function occupies the only slot; the rest must observe
		// cancellation while waiting on the semaphore.
		exec := NewExecutor(1)
		exec.semaphore <- struct{}{}
		defer func() { <-exec.semaphore }()

		errs := exec.Run(ctx, blocker)
		if !errors.Is(errs[0], context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", errs[0])
		}
		select {
		case <-started:
			t.Error("function ran despite cancelled context")
		default:
		}
	})

	t.Run("no functions", func(t *testing.T) {
		if errs := NewExecutor(1).Run(context.Background()); errs != nil {
			t.Errorf("expected nil, got %v", errs)
		}
	})
}

func TestGatherResults(t *testing.T) {
	t.Parallel()

	fns := make([]func() (int, error), 5)
	for i := range fns {
		n := i
		fns[i] = func() (int, error) {
			if n == 3 {
				return 0, fmt.Errorf("task %d failed", n)
			}
			return n * n, nil
		}
	}

	results, errs := GatherResults(context.Background(), 2, fns...)
	if len(results) != 5 || len(errs) != 5 {
		t.Fatalf("expected 5 slots, got %d results / %d errors", len(results), len(errs))
	}
	for i, want := range []int{0, 1, 4, 0, 16} {
		if results[i] != want {
			t.Errorf("results[%d] = %d, expected %d", i, results[i], want)
		}
	}
	if errs[3] == nil {
		t.Error("expected error at index 3")
	}
	if err := FirstError(errs); err == nil {
		t.Error("FirstError should surface the failure")
	}
}

func TestBatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		items     []int
		batchSize int
		expected  [][]int
	}{
		{
			name:      "even split",
			items:     []int{1, 2, 3, 4},
			batchSize: 2,
			expected:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:      "uneven tail",
			items:     []int{1, 2, 3, 4, 5},
			batchSize: 2,
			expected:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:      "batch larger than input",
			items:     []int{1, 2},
			batchSize: 10,
			expected:  [][]int{{1, 2}},
		},
		{
			name:      "empty input",
			items:     nil,
			batchSize: 3,
			expected:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Batch(tt.items, tt.batchSize)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d batches, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if len(got[i]) != len(tt.expected[i]) {
					t.Errorf("batch %d: expected %v, got %v", i, tt.expected[i], got[i])
					continue
				}
				for j := range got[i] {
					if got[i][j] != tt.expected[i][j] {
						t.Errorf("batch %d: expected %v, got %v", i, tt.expected[i], got[i])
						break
					}
				}
			}
		})
	}
}

func TestFirstError(t *testing.T) {
	t.Parallel()

	if err := FirstError(nil); err != nil {
		t.Errorf("expected nil for empty slice, got %v", err)
	}
	if err := FirstError([]error{nil, nil}); err != nil {
		t.Errorf("expected nil when all succeed, got %v", err)
	}

	first := errors.New("first")
	second := errors.New("second")
	if err := FirstError([]error{nil, first, second}); !errors.Is(err, first) {
		t.Errorf("expected first error, got %v", err)
	}
}
