package translate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// sends one request for a batch of items
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

func splitBatches(items []TranslationItem, size int) [][]TranslationItem {
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// runBatches splits items into batches of BatchSize and runs up to
// Concurrency of them at once, starting at most RateLimitPerMin per minute.
// The first failing batch cancels the rest. Results come back sorted by
// index.
func runBatches(
	ctx context.Context,
	items []TranslationItem,
	opts Options,
	translate batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batches := splitBatches(items, opts.batchSize())

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimitPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMin)/60.0), 1)
	}

	// each batch writes only its own slot
	perBatch := make([][]TranslationResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())

	for i, batch := range batches {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			results, err := translate(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d/%d failed: %w", i+1, len(batches), err)
			}
			perBatch[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []TranslationResult
	for _, results := range perBatch {
		all = append(all, results...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all, nil
}
