// Package batch runs independent per-SKU computations in parallel with an
// ordered collect, so output is deterministic for a fixed input set.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result pairs one input key with its computed value or failure. Failures are
// captured per item; a single bad SKU never aborts the batch.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// ForEach fans fn out over keys with at most workers goroutines and returns
// results in input order. fn panics are converted into item errors.
func ForEach[T any](ctx context.Context, keys []string, workers int, fn func(ctx context.Context, key string) (T, error)) []Result[T] {
	if workers < 1 {
		workers = 1
	}

	results := make([]Result[T], len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, key := range keys {
		g.Go(func() error {
			results[i] = run(ctx, key, fn)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()
	return results
}

func run[T any](ctx context.Context, key string, fn func(ctx context.Context, key string) (T, error)) (res Result[T]) {
	res.Key = key
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic computing %s: %v", key, r)
		}
	}()

	res.Value, res.Err = fn(ctx, key)
	return res
}
