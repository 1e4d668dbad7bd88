package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"antibtc/internal/model"
)

// Store provides Postgres persistence for engine events and snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutEvents inserts event records, skipping sequence numbers already stored.
func (s *Store) PutEvents(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO engine_events (seq, event_type, occurred_at, payload, created_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(event.Seq),
			event.Type,
			event.OccurredAt,
			[]byte(event.Data),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutSnapshots inserts or updates pool snapshots keyed by capture time.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snapshot := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				taken_at, pool_tokens, pool_usdt, reserve_tokens, spot_price, created_at
			) VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (taken_at)
			DO UPDATE SET
				pool_tokens = EXCLUDED.pool_tokens,
				pool_usdt = EXCLUDED.pool_usdt,
				reserve_tokens = EXCLUDED.reserve_tokens,
				spot_price = EXCLUDED.spot_price
		`,
			snapshot.TakenAt,
			snapshot.PoolTokens,
			snapshot.PoolUSDT,
			snapshot.ReserveTokens,
			snapshot.SpotPrice,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
