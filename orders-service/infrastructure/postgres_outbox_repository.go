package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/events"
	"github.com/flashmart/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type postgresOutboxRepository struct {
	ext sqlx.ExtContext
}

type postgresOutboxEntry struct {
	OrderID     int64     `db:"order_id"`
	UserID      int64     `db:"user_id"`
	TotalAmount int64     `db:"total_amount"`
	Items       []byte    `db:"items"`
	PaymentID   *int64    `db:"payment_id"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *postgresOutboxRepository) Insert(ctx context.Context, entry *domain.OutboxEntry) error {
	items, err := json.Marshal(entry.Items)
	if err != nil {
		return errors.Wrap(err, "failed to serialize outbox item snapshot")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	const query = `
		INSERT INTO outbox (order_id, user_id, total_amount, items, payment_id, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5)`
	if _, err := r.ext.ExecContext(ctx, query, entry.OrderID, entry.UserID, entry.TotalAmount.Int64(), items, createdAt); err != nil {
		return errors.Wrapf(err, "failed to insert outbox entry for order %d", entry.OrderID)
	}
	entry.CreatedAt = createdAt
	return nil
}

func (r *postgresOutboxRepository) FindUnresolved(ctx context.Context) ([]*domain.OutboxEntry, error) {
	const query = `
		SELECT order_id, user_id, total_amount, items, payment_id, created_at
		FROM outbox
		WHERE payment_id IS NULL
		ORDER BY created_at`

	var rows []postgresOutboxEntry
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to select unresolved outbox entries")
	}

	entries := make([]*domain.OutboxEntry, len(rows))
	for i, row := range rows {
		entry, err := toDomainOutboxEntry(row)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}

func (r *postgresOutboxRepository) Resolve(ctx context.Context, orderID, paymentID int64) error {
	const query = `UPDATE outbox SET payment_id = $2 WHERE order_id = $1`
	if _, err := r.ext.ExecContext(ctx, query, orderID, paymentID); err != nil {
		return errors.Wrapf(err, "failed to resolve outbox entry for order %d", orderID)
	}
	return nil
}

func toDomainOutboxEntry(row postgresOutboxEntry) (*domain.OutboxEntry, error) {
	var items []events.OrderItem
	if len(row.Items) > 0 {
		if err := json.Unmarshal(row.Items, &items); err != nil {
			return nil, errors.Wrapf(err, "corrupt item snapshot for order %d", row.OrderID)
		}
	}
	return &domain.OutboxEntry{
		OrderID:     row.OrderID,
		UserID:      row.UserID,
		TotalAmount: models.NewCents(row.TotalAmount),
		Items:       items,
		PaymentID:   row.PaymentID,
		CreatedAt:   row.CreatedAt,
	}, nil
}
