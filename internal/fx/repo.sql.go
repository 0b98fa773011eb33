package fx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonrang2/auskorphi/internal/shared"
)

// Repository keeps every observed rate so the service can fall back to the
// last known value when the provider is down.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records an observation.
func (r *Repository) Insert(ctx context.Context, rate Rate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fx_rates (base_currency, quote_currency, rate, fetched_at)
		 VALUES ($1, $2, $3, $4)`,
		rate.Base, rate.Quote, rate.Rate, rate.FetchedAt)
	return err
}

// Latest returns the most recent stored observation for the pair.
func (r *Repository) Latest(ctx context.Context, base, quote string) (Rate, error) {
	var rate Rate
	err := r.pool.QueryRow(ctx,
		`SELECT base_currency, quote_currency, rate, fetched_at
		 FROM fx_rates
		 WHERE base_currency = $1 AND quote_currency = $2
		 ORDER BY fetched_at DESC
		 LIMIT 1`, base, quote).
		Scan(&rate.Base, &rate.Quote, &rate.Rate, &rate.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rate{}, shared.ErrNotFound
	}
	return rate, err
}
