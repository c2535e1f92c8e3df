package places

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nablem/bluette/internal/model"
)

type Stats struct {
	CandidatesFound atomic.Int64
	DetailsFetched  atomic.Int64
	DetailFailures  atomic.Int64
	Dropped         atomic.Int64
	Filtered        atomic.Int64
	Stored          atomic.Int64
	StoreErrors     atomic.Int64
	Retries         atomic.Int64
}

// Sink persists a batch of places keyed by external ID. Implementations
// count per-record failures instead of failing the batch.
type Sink interface {
	UpsertBatch(ctx context.Context, places []model.Place) (stored, failed int)
}

// RunOptions provides optional hooks for the ingest pipeline.
type RunOptions struct {
	// Keep, if set, discards enriched places for which it returns false
	// (e.g. coordinates outside the target region).
	Keep func(model.Place) bool
	// OnPlace is called for each successfully enriched place.
	OnPlace func(model.Place)
}

// Run executes the ingest pipeline: search with pagination, rank to the
// result cap, enrich each candidate, then hand the batch to every sink.
//
// Failures are contained per item; only a failed initial search aborts the
// run with an error. Output ordering is unspecified when Concurrency > 1.
func Run(ctx context.Context, client *Client, params model.IngestParams, sinks []Sink, logger *log.Logger, opts *RunOptions) (*Stats, error) {
	if opts == nil {
		opts = &RunOptions{}
	}
	if params.MaxResults <= 0 {
		params.MaxResults = defaultMaxResults
	}
	if params.MaxPages <= 0 {
		params.MaxPages = defaultMaxPages
	}
	if params.Concurrency <= 0 {
		params.Concurrency = 1
	}
	if params.FieldMask == "" {
		params.FieldMask = DefaultFieldMask
	}

	stats := &Stats{}
	defer func() { stats.Retries.Store(client.RetryCount()) }()

	candidates, err := searchAll(ctx, client, params, stats, logger)
	if err != nil {
		return stats, err
	}

	candidates = rankTop(candidates, params.MaxResults)
	logger.Printf("ENRICH candidates=%d concurrency=%d", len(candidates), params.Concurrency)

	// Progress reporter
	startTime := time.Now()
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				elapsed := time.Since(startTime).Truncate(time.Second)
				logger.Printf("PROGRESS fetched=%d failed=%d dropped=%d elapsed=%s",
					stats.DetailsFetched.Load(), stats.DetailFailures.Load(),
					stats.Dropped.Load(), elapsed)
			case <-done:
				return
			}
		}
	}()

	var mu sync.Mutex
	var enriched []model.Place

	var wg sync.WaitGroup
	sem := make(chan struct{}, params.Concurrency)

loop:
	for i, c := range candidates {
		select {
		case <-ctx.Done():
			logger.Printf("CANCELLED after %d/%d candidates", i, len(candidates))
			break loop
		default:
		}

		logger.Printf("PLACE %d/%d name=%q id=%s", i+1, len(candidates), c.Name, c.PlaceID)

		sem <- struct{}{}
		wg.Add(1)
		go func(placeID string) {
			defer wg.Done()
			defer func() { <-sem }()

			place, err := enrich(ctx, client, placeID, params.Category, params.FieldMask)
			if err != nil {
				logEnrichFailure(logger, placeID, err)
				if errors.Is(err, ErrMissingFields) {
					stats.Dropped.Add(1)
				} else {
					stats.DetailFailures.Add(1)
				}
				return
			}

			stats.DetailsFetched.Add(1)
			if opts.Keep != nil && !opts.Keep(place) {
				stats.Filtered.Add(1)
				logger.Printf("FILTERED id=%s lat=%.5f lng=%.5f", place.ExternalID, place.Latitude, place.Longitude)
				return
			}
			if opts.OnPlace != nil {
				opts.OnPlace(place)
			}

			mu.Lock()
			enriched = append(enriched, place)
			mu.Unlock()
		}(c.PlaceID)
	}

	wg.Wait()
	close(done)

	logger.Printf("ENRICH done fetched=%d failed=%d dropped=%d filtered=%d",
		stats.DetailsFetched.Load(), stats.DetailFailures.Load(),
		stats.Dropped.Load(), stats.Filtered.Load())

	for _, sink := range sinks {
		stored, failed := sink.UpsertBatch(ctx, enriched)
		stats.Stored.Add(int64(stored))
		stats.StoreErrors.Add(int64(failed))
	}

	return stats, nil
}
