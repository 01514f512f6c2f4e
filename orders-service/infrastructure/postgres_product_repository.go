package infrastructure

import (
	"context"

	"github.com/flashmart/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type postgresProductRepository struct {
	ext sqlx.ExtContext
}

type postgresProductPrice struct {
	ID    int64 `db:"id"`
	Price int64 `db:"price"`
}

// PricesByIDs returns the current unit price of each known product id.
// Unknown ids are simply absent from the result; the caller decides whether
// that is an error.
func (r *postgresProductRepository) PricesByIDs(ctx context.Context, productIDs []int64) (map[int64]models.Cents, error) {
	if len(productIDs) == 0 {
		return map[int64]models.Cents{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, price FROM products WHERE id IN (?)`, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build product price query")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var rows []postgresProductPrice
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to load product prices")
	}

	prices := make(map[int64]models.Cents, len(rows))
	for _, row := range rows {
		prices[row.ID] = models.NewCents(row.Price)
	}
	return prices, nil
}
