package routecache

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Each Put is a single upsert, so samples are durable as soon as they are
// cached.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL route sample repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves the sample for a key.
func (r *PostgresRepository) Get(ctx context.Context, key Key) (*Sample, error) {
	query := `
		SELECT distance_meters, idle_seconds, provider, fetched_at
		FROM route_samples
		WHERE origin = $1 AND destination = $2 AND slot_label = $3
	`

	var sample Sample
	err := r.pool.QueryRow(ctx, query, key.Origin, key.Destination, key.SlotLabel).Scan(
		&sample.DistanceMeters,
		&sample.IdleSeconds,
		&sample.Provider,
		&sample.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSampleNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// Put stores a sample for a key.
func (r *PostgresRepository) Put(ctx context.Context, key Key, sample *Sample) error {
	query := `
		INSERT INTO route_samples (
			origin, destination, slot_label,
			distance_meters, idle_seconds, provider, fetched_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (origin, destination, slot_label) DO UPDATE SET
			distance_meters = EXCLUDED.distance_meters,
			idle_seconds = EXCLUDED.idle_seconds,
			provider = EXCLUDED.provider,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.pool.Exec(ctx, query,
		key.Origin,
		key.Destination,
		key.SlotLabel,
		sample.DistanceMeters,
		sample.IdleSeconds,
		sample.Provider,
		sample.FetchedAt,
	)
	return err
}

// Count returns the number of cached samples.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM route_samples`).Scan(&n)
	return n, err
}

// Clear removes all cached samples.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM route_samples`)
	return err
}
