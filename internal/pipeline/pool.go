package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one task run by Run.
type Result[T, R any] struct {
	// Item is the input the task was started with.
	Item T

	// Value is the task's return value. It is the zero value when Err is set.
	Value R

	// Err is the task failure, or the context error if the task never started.
	Err error
}

// Task processes a single item.
type Task[T, R any] func(ctx context.Context, item T) (R, error)

// Run executes task once for every item with at most limit tasks in flight.
//
// A failing task does not stop the others: its error is captured in the
// corresponding Result and the caller decides whether to skip or abort.
// Results are returned in input order regardless of completion order.
// Items not yet started when ctx is cancelled get ctx.Err() as their error.
func Run[T, R any](ctx context.Context, limit int, items []T, task Task[T, R]) []Result[T, R] {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result[T, R], len(items))

	// errgroup.WithContext is not used here: one failure must not cancel
	// the remaining tasks.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		results[i].Item = item
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := task(ctx, item)
			results[i].Value = v
			results[i].Err = err
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks never return an error to the group

	return results
}

// Errors returns the failed results.
func Errors[T, R any](results []Result[T, R]) []Result[T, R] {
	failed := make([]Result[T, R], 0)
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Values returns the values of the successful results, in input order.
func Values[T, R any](results []Result[T, R]) []R {
	values := make([]R, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}
