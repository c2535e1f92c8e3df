package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nablem/bluette/internal/model"
)

// SnapshotStore is a local sqlite sink holding the result of a run, used for
// offline inspection and CSV export.
type SnapshotStore struct {
	db     *sql.DB
	logger *log.Logger
	mu     sync.Mutex
}

func NewSnapshotStore(dbPath string, logger *log.Logger) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &SnapshotStore{db: db, logger: logger}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS places (
		external_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		latitude REAL,
		longitude REAL,
		availability TEXT,
		map_uri TEXT,
		timezone TEXT,
		rating REAL,
		rating_count INTEGER,
		query TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_places_query ON places(query);
	CREATE INDEX IF NOT EXISTS idx_places_coords ON places(latitude, longitude);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// UpsertBatch replaces rows keyed by external_id. Per-record failures are
// counted and skipped.
func (s *SnapshotStore) UpsertBatch(ctx context.Context, places []model.Place) (stored, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Printf("SNAPSHOT_ERROR beginning tx: %v", err)
		return 0, len(places)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO places
		(external_id, name, address, latitude, longitude, availability,
		 map_uri, timezone, rating, rating_count, query)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		s.logger.Printf("SNAPSHOT_ERROR preparing stmt: %v", err)
		return 0, len(places)
	}
	defer stmt.Close()

	for _, p := range places {
		if !p.Valid() {
			failed++
			continue
		}
		availability, err := json.Marshal(p.Availability)
		if err != nil {
			failed++
			continue
		}
		if _, err := stmt.Exec(
			p.ExternalID, p.Name, p.Address, p.Latitude, p.Longitude, string(availability),
			p.MapURI, p.Timezone, p.Rating, p.RatingCount, p.Query,
		); err != nil {
			s.logger.Printf("SNAPSHOT_ERROR id=%s err=%v", p.ExternalID, err)
			failed++
			continue
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		s.logger.Printf("SNAPSHOT_ERROR committing tx: %v", err)
		return 0, stored + failed
	}

	return stored, failed
}

// Load returns every place in the snapshot, availability decoded.
func (s *SnapshotStore) Load() ([]model.Place, error) {
	rows, err := s.db.Query(`
		SELECT external_id, name, address, latitude, longitude, availability,
		       map_uri, timezone, rating, rating_count, query
		FROM places ORDER BY rating * rating_count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		var availability string
		if err := rows.Scan(
			&p.ExternalID, &p.Name, &p.Address, &p.Latitude, &p.Longitude, &availability,
			&p.MapURI, &p.Timezone, &p.Rating, &p.RatingCount, &p.Query,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if availability != "" {
			if err := json.Unmarshal([]byte(availability), &p.Availability); err != nil {
				return nil, fmt.Errorf("decoding availability for %s: %w", p.ExternalID, err)
			}
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (s *SnapshotStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM places").Scan(&count)
	return count, err
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
