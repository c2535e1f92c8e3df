package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nablem/bluette/internal/model"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRankTop(t *testing.T) {
	candidates := []SearchResult{
		{PlaceID: "a", Rating: 5, UserRatingsTotal: 2},  // score 10
		{PlaceID: "b"},                                  // score 0
		{PlaceID: "c", Rating: 5, UserRatingsTotal: 10}, // score 50
		{PlaceID: "d", Rating: 1, UserRatingsTotal: 5},  // score 5
	}

	got := rankTop(candidates, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].PlaceID != "c" || got[1].PlaceID != "a" {
		t.Errorf("expected [c a], got [%s %s]", got[0].PlaceID, got[1].PlaceID)
	}
}

func TestRankTop_UnderCapUntouched(t *testing.T) {
	candidates := []SearchResult{{PlaceID: "a"}, {PlaceID: "b"}}
	got := rankTop(candidates, 5)
	if len(got) != 2 {
		t.Errorf("expected all results kept, got %d", len(got))
	}
}

// pagedServer serves a fixed sequence of search pages. Page n is returned
// for the token "page-n"; the initial request gets page 0.
func pagedServer(t *testing.T, pages []SearchResponse) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		idx := 0
		if token := r.URL.Query().Get("pagetoken"); token != "" {
			fmt.Sscanf(token, "page-%d", &idx)
		}
		if idx >= len(pages) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(pages[idx])
	}))
	return ts, calls
}

func nResults(prefix string, n int) []SearchResult {
	out := make([]SearchResult, n)
	for i := range out {
		out[i] = SearchResult{PlaceID: fmt.Sprintf("%s-%d", prefix, i), Name: prefix}
	}
	return out
}

func searchTestParams(maxResults, maxPages int) model.IngestParams {
	return model.IngestParams{
		Location:   "Testville",
		Country:    "Testland",
		Category:   "bars",
		MaxResults: maxResults,
		MaxPages:   maxPages,
	}
}

func TestSearchAll_StopsWhenTokenAbsent(t *testing.T) {
	defer quickPages()()
	ts, calls := pagedServer(t, []SearchResponse{
		{Status: StatusOK, Results: nResults("p0", 5)},
	})
	defer ts.Close()

	got, err := searchAll(context.Background(), newTestClient(ts.URL), searchTestParams(30, 3), &Stats{}, discardLogger())
	if err != nil {
		t.Fatalf("searchAll failed: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("expected 5 results, got %d", len(got))
	}
	if *calls != 1 {
		t.Errorf("expected 1 call, got %d", *calls)
	}
}

func TestSearchAll_StopsAtResultCap(t *testing.T) {
	defer quickPages()()
	ts, calls := pagedServer(t, []SearchResponse{
		{Status: StatusOK, Results: nResults("p0", 20), NextPageToken: "page-1"},
		{Status: StatusOK, Results: nResults("p1", 20), NextPageToken: "page-2"},
		{Status: StatusOK, Results: nResults("p2", 20), NextPageToken: "page-3"},
	})
	defer ts.Close()

	// Cap of 30 is reached after page 2; the page ceiling of 5 and the
	// third token never come into play.
	got, err := searchAll(context.Background(), newTestClient(ts.URL), searchTestParams(30, 5), &Stats{}, discardLogger())
	if err != nil {
		t.Fatalf("searchAll failed: %v", err)
	}
	if len(got) != 40 {
		t.Errorf("expected 40 accumulated results, got %d", len(got))
	}
	if *calls != 2 {
		t.Errorf("expected 2 calls, got %d", *calls)
	}
}

func TestSearchAll_StopsAtPageCeiling(t *testing.T) {
	defer quickPages()()
	ts, calls := pagedServer(t, []SearchResponse{
		{Status: StatusOK, Results: nResults("p0", 2), NextPageToken: "page-1"},
		{Status: StatusOK, Results: nResults("p1", 2), NextPageToken: "page-2"},
		{Status: StatusOK, Results: nResults("p2", 2), NextPageToken: "page-3"},
	})
	defer ts.Close()

	// Tokens keep coming and the cap is far away; the ceiling of 3 halts.
	got, err := searchAll(context.Background(), newTestClient(ts.URL), searchTestParams(100, 3), &Stats{}, discardLogger())
	if err != nil {
		t.Fatalf("searchAll failed: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("expected 6 results, got %d", len(got))
	}
	if *calls != 3 {
		t.Errorf("expected 3 calls, got %d", *calls)
	}
}

func TestSearchAll_PageFailureKeepsPartialResults(t *testing.T) {
	defer quickPages()()
	ts, _ := pagedServer(t, []SearchResponse{
		{Status: StatusOK, Results: nResults("p0", 4), NextPageToken: "page-9"},
	})
	defer ts.Close()

	// page-9 does not exist: the follow-up page fails after retries, but
	// the first page's results survive.
	got, err := searchAll(context.Background(), newTestClient(ts.URL), searchTestParams(30, 3), &Stats{}, discardLogger())
	if err != nil {
		t.Fatalf("partial failure must not be an error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 partial results, got %d", len(got))
	}
}

func TestSearchAll_InitialFailureAborts(t *testing.T) {
	defer quickPages()()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResponse{Status: StatusOverQueryLimit})
	}))
	defer ts.Close()

	_, err := searchAll(context.Background(), newTestClient(ts.URL), searchTestParams(30, 3), &Stats{}, discardLogger())
	if err == nil {
		t.Fatal("expected initial search failure to abort")
	}
}

// quickPages removes the continuation-token activation delay for tests.
func quickPages() func() {
	old := pageDelay
	pageDelay = time.Millisecond
	return func() { pageDelay = old }
}
