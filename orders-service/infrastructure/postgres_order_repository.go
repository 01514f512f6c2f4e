package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type postgresOrderRepository struct {
	ext sqlx.ExtContext
}

type postgresOrder struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	TotalAmount int64     `db:"total_amount"`
	IsPaid      bool      `db:"is_paid"`
	PaymentLink string    `db:"payment_link"`
	CreatedAt   time.Time `db:"created_at"`
}

type postgresOrderItem struct {
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
	UnitPrice int64 `db:"unit_price"`
}

func (r *postgresOrderRepository) Insert(ctx context.Context, order *domain.Order) (int64, error) {
	const orderQuery = `
		INSERT INTO orders (user_id, total_amount, is_paid, payment_link, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := sqlx.GetContext(ctx, r.ext, &id, orderQuery,
		order.UserID, order.TotalAmount.Int64(), order.IsPaid, order.PaymentLink, createdAt)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert order")
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`
	for _, item := range order.Items {
		if _, err := r.ext.ExecContext(ctx, itemQuery, id, item.ProductID, item.Quantity, item.UnitPrice.Int64()); err != nil {
			return 0, errors.Wrapf(err, "failed to insert item for product %d", item.ProductID)
		}
	}

	order.CreatedAt = createdAt
	return id, nil
}

func (r *postgresOrderRepository) FindByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	const query = `
		SELECT id, user_id, total_amount, is_paid, payment_link, created_at
		FROM orders
		WHERE id = $1`

	var row postgresOrder
	err := sqlx.GetContext(ctx, r.ext, &row, query, orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to find order %d", orderID)
	}

	const itemsQuery = `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id`

	var itemRows []postgresOrderItem
	if err := sqlx.SelectContext(ctx, r.ext, &itemRows, itemsQuery, orderID); err != nil {
		return nil, errors.Wrapf(err, "failed to load items of order %d", orderID)
	}

	items := make([]domain.OrderItem, len(itemRows))
	for i, item := range itemRows {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: models.NewCents(item.UnitPrice),
		}
	}

	return &domain.Order{
		ID:          row.ID,
		UserID:      row.UserID,
		TotalAmount: models.NewCents(row.TotalAmount),
		IsPaid:      row.IsPaid,
		PaymentLink: row.PaymentLink,
		CreatedAt:   row.CreatedAt,
		Items:       items,
	}, nil
}

func (r *postgresOrderRepository) SetPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) (bool, error) {
	const query = `
		UPDATE orders
		SET is_paid = $2, payment_link = $3
		WHERE id = $1`

	res, err := r.ext.ExecContext(ctx, query, orderID, isPaid, paymentLink)
	if err != nil {
		return false, errors.Wrapf(err, "failed to update payment state of order %d", orderID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

func (r *postgresOrderRepository) Delete(ctx context.Context, orderID int64) (int64, error) {
	// Items first: they are exclusively owned by the order.
	if _, err := r.ext.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return 0, errors.Wrapf(err, "failed to delete items of order %d", orderID)
	}

	res, err := r.ext.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to delete order %d", orderID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}
