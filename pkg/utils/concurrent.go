package utils

import (
	"context"
	"sync"
)

// Executor runs functions concurrently while a semaphore bounds the number
// in flight. The zero value is not usable; construct with NewExecutor.
type Executor struct {
	semaphore chan struct{}
}

// NewExecutor creates an Executor allowing at most maxConcurrency
// functions to run at once. Non-positive values fall back to the
// SEMAPHORE_LIMIT environment default.
func NewExecutor(maxConcurrency int) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = SemaphoreLimit()
	}
	return &Executor{semaphore: make(chan struct{}, maxConcurrency)}
}

// Run executes the functions concurrently and returns one error slot per
// function, index-aligned with the input. Panics inside a function are
// recovered and surfaced as *PanicError in its slot. Functions that never
// acquire the semaphore before ctx is cancelled report ctx.Err().
func (e *Executor) Run(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	errs := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() error) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				errs[index] = err
			})

			select {
			case e.semaphore <- struct{}{}:
				defer func() { <-e.semaphore }()
			case <-ctx.Done():
				errs[index] = ctx.Err()
				return
			}

			errs[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return errs
}

// Gather executes functions concurrently with a fresh bounded executor.
func Gather(ctx context.Context, maxConcurrency int, functions ...func() error) []error {
	return NewExecutor(maxConcurrency).Run(ctx, functions...)
}

// GatherResults executes functions concurrently and collects both results
// and errors, index-aligned with the input. Panics are recovered into the
// error slot for their index.
func GatherResults[T any](ctx context.Context, maxConcurrency int, functions ...func() (T, error)) ([]T, []error) {
	if len(functions) == 0 {
		return nil, nil
	}

	executor := NewExecutor(maxConcurrency)
	results := make([]T, len(functions))
	errs := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() (T, error)) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				errs[index] = err
			})

			select {
			case executor.semaphore <- struct{}{}:
				defer func() { <-executor.semaphore }()
			case <-ctx.Done():
				errs[index] = ctx.Err()
				return
			}

			results[index], errs[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results, errs
}

// Batch splits items into consecutive slices of at most batchSize
// elements. Non-positive sizes default to 10.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 10
	}

	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// FirstError returns the first non-nil error from an index-aligned error
// slice, or nil when every slot succeeded.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
