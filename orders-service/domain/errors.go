package domain

import "github.com/pkg/errors"

var (
	// ErrEmptyOrder rejects order creation without line items.
	ErrEmptyOrder = errors.New("order must have at least one item")

	// ErrInvalidQuantity rejects non-positive line quantities.
	ErrInvalidQuantity = errors.New("order item quantity must be positive")

	// ErrOrderNotFound signals an unknown order id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrProductNotFound signals an order item referencing an unknown product.
	ErrProductNotFound = errors.New("product not found")

	// ErrPaymentGateway signals that the payment participant was unreachable
	// or returned a non-success response.
	ErrPaymentGateway = errors.New("payment gateway request failed")
)

// IsValidation reports whether err is a request-shape problem the caller
// can fix.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyOrder) || errors.Is(err, ErrInvalidQuantity)
}

// IsNotFound reports whether err is a missing-entity lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrProductNotFound)
}
