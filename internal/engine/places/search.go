package places

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/nablem/bluette/internal/model"
)

const (
	defaultMaxResults = 30
	defaultMaxPages   = 3
)

// The directory requires a pause before a continuation token becomes
// usable; paging without it fails.
var pageDelay = 2 * time.Second

// searchAll accumulates candidates across search pages until the cap, the
// page ceiling, or the end of the result set. A failure on the initial call
// aborts; a failure on a later page returns whatever was accumulated.
func searchAll(ctx context.Context, client *Client, params model.IngestParams, stats *Stats, logger *log.Logger) ([]SearchResult, error) {
	query := fmt.Sprintf("%s in %s, %s", params.Category, params.Location, params.Country)
	logger.Printf("SEARCH query=%q max_results=%d max_pages=%d", query, params.MaxResults, params.MaxPages)

	resp, err := client.TextSearch(ctx, query, params.Category)
	if err != nil {
		return nil, fmt.Errorf("initial search: %w", err)
	}

	accumulated := resp.Results
	token := resp.NextPageToken
	logger.Printf("SEARCH page=1 results=%d", len(resp.Results))

	page := 1
	for token != "" && len(accumulated) < params.MaxResults && page < params.MaxPages {
		if err := sleepCtx(ctx, pageDelay); err != nil {
			return accumulated, nil
		}

		resp, err = client.NextPage(ctx, token)
		if err != nil {
			logger.Printf("SEARCH page=%d failed err=%v", page+1, err)
			break
		}

		accumulated = append(accumulated, resp.Results...)
		token = resp.NextPageToken
		page++
		logger.Printf("SEARCH page=%d results=%d total=%d", page, len(resp.Results), len(accumulated))
	}

	stats.CandidatesFound.Add(int64(len(accumulated)))
	return accumulated, nil
}

// rankTop keeps the cap highest-scoring candidates when the accumulated set
// exceeds it. Score is rating weighted by review volume; candidates missing
// either sort last.
func rankTop(results []SearchResult, limit int) []SearchResult {
	if len(results) <= limit {
		return results
	}
	sort.Slice(results, func(i, j int) bool {
		return score(results[i]) > score(results[j])
	})
	return results[:limit]
}

func score(r SearchResult) float64 {
	return r.Rating * float64(r.UserRatingsTotal)
}
