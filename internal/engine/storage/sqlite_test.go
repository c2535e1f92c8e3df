package storage

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/nablem/bluette/internal/model"
)

func newTestSnapshot(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "test.db"), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("opening snapshot store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testPlace(id, name string) model.Place {
	return model.Place{
		ExternalID: id,
		Name:       name,
		Address:    "1 Test St",
		Latitude:   48.88,
		Longitude:  2.32,
		Availability: map[string]model.TimeWindow{
			"friday": {Start: "22:00", End: "23:59"},
		},
		Rating:      4.2,
		RatingCount: 10,
		Query:       "bars",
	}
}

func TestSnapshotStore_UpsertAndLoad(t *testing.T) {
	store := newTestSnapshot(t)

	stored, failed := store.UpsertBatch(context.Background(), []model.Place{
		testPlace("a", "Bar A"),
		testPlace("b", "Bar B"),
	})
	if stored != 2 || failed != 0 {
		t.Fatalf("stored=%d failed=%d, want 2/0", stored, failed)
	}

	places, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	for _, p := range places {
		w, ok := p.Availability["friday"]
		if !ok || w.Start != "22:00" || w.End != "23:59" {
			t.Errorf("availability did not round-trip: %+v", p.Availability)
		}
	}
}

func TestSnapshotStore_UpsertReplacesByKey(t *testing.T) {
	store := newTestSnapshot(t)
	ctx := context.Background()

	store.UpsertBatch(ctx, []model.Place{testPlace("a", "Old Name")})
	store.UpsertBatch(ctx, []model.Place{testPlace("a", "New Name")})

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", count)
	}

	places, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if places[0].Name != "New Name" {
		t.Errorf("expected name replaced, got %q", places[0].Name)
	}
}

func TestSnapshotStore_SkipsInvalidRecords(t *testing.T) {
	store := newTestSnapshot(t)

	stored, failed := store.UpsertBatch(context.Background(), []model.Place{
		testPlace("a", "Bar A"),
		{ExternalID: "", Name: "Bar X"},
		{ExternalID: "y", Name: ""},
	})
	if stored != 1 || failed != 2 {
		t.Errorf("stored=%d failed=%d, want 1/2", stored, failed)
	}
}
