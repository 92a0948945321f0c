package lazygen

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// All resolves several independent generations concurrently and returns
// their values in argument order. It fails fast: the first resolution
// error cancels the remaining waits and is returned. Dependencies within
// each generation are still resolved sequentially.
func All(ctx context.Context, gens ...*Generation) ([]any, error) {
	return resolveAll(ctx, 0, gens)
}

// AllLimit is like All but bounds the number of generations resolving at
// the same time.
func AllLimit(ctx context.Context, limit int, gens ...*Generation) ([]any, error) {
	return resolveAll(ctx, limit, gens)
}

func resolveAll(ctx context.Context, limit int, gens []*Generation) ([]any, error) {
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	results := make([]any, len(gens))
	for i, g := range gens {
		eg.Go(func() error {
			value, err := g.Resolve(ctx)
			if err != nil {
				return err
			}
			results[i] = value
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
