package infrastructure

import (
	"context"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PostgresStore implements domain.Store on top of sqlx. The zero-value
// repositories run against the pool; WithinTx hands callbacks a store bound
// to a single transaction.
type PostgresStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewPostgresStore creates a pool-backed store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, ext: db}
}

// Orders returns the order repository bound to the current scope.
func (s *PostgresStore) Orders() domain.OrderRepository {
	return &postgresOrderRepository{ext: s.ext}
}

// Products returns the product repository bound to the current scope.
func (s *PostgresStore) Products() domain.ProductRepository {
	return &postgresProductRepository{ext: s.ext}
}

// Outbox returns the outbox repository bound to the current scope.
func (s *PostgresStore) Outbox() domain.OutboxRepository {
	return &postgresOutboxRepository{ext: s.ext}
}

// WithinTx runs fn inside a transaction. Nested calls reuse the transaction
// already in scope. The transaction is rolled back on error or panic and
// committed otherwise; the connection is released on every exit path.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, nested := s.ext.(*sqlx.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&PostgresStore{db: s.db, ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	done = true
	return nil
}
