package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the Postgres-backed Store. Outside RunInTx its queries run
// directly against the pool; inside, against one database transaction so
// every settlement commits or aborts as a whole.
type PgStore struct {
	db *pgxpool.Pool
	*Queries
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db, Queries: New(db)}
}

// RunInTx executes fn within a database transaction.
func (s *PgStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
