package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nablem/bluette/internal/model"
)

const placesSchema = `
CREATE TABLE IF NOT EXISTS places (
	external_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	availability JSONB,
	map_uri TEXT,
	timezone TEXT,
	rating DOUBLE PRECISION,
	rating_count INTEGER,
	query TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const placesUpsert = `
INSERT INTO places
	(external_id, name, address, latitude, longitude, availability,
	 map_uri, timezone, rating, rating_count, query, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
ON CONFLICT (external_id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	availability = EXCLUDED.availability,
	map_uri = EXCLUDED.map_uri,
	timezone = EXCLUDED.timezone,
	rating = EXCLUDED.rating,
	rating_count = EXCLUDED.rating_count,
	query = EXCLUDED.query,
	updated_at = now()`

// PostgresStore upserts places into a Postgres table keyed by external_id.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgresStore(ctx context.Context, dsn string, logger *log.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	if _, err := pool.Exec(ctx, placesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// UpsertBatch writes each place individually so one bad record never blocks
// the rest of the batch. Failures are counted, not returned.
func (s *PostgresStore) UpsertBatch(ctx context.Context, places []model.Place) (stored, failed int) {
	for _, p := range places {
		if !p.Valid() {
			s.logger.Printf("STORE_SKIP missing required fields name=%q", p.Name)
			failed++
			continue
		}

		availability, err := json.Marshal(p.Availability)
		if err != nil {
			s.logger.Printf("STORE_ERROR id=%s err=%v", p.ExternalID, err)
			failed++
			continue
		}

		_, err = s.pool.Exec(ctx, placesUpsert,
			p.ExternalID, p.Name, p.Address, p.Latitude, p.Longitude, availability,
			p.MapURI, p.Timezone, p.Rating, p.RatingCount, p.Query,
		)
		if err != nil {
			s.logger.Printf("STORE_ERROR id=%s err=%v", p.ExternalID, err)
			failed++
			continue
		}
		stored++
	}

	return stored, failed
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM places").Scan(&count)
	return count, err
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
