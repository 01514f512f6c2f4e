package models

import "fmt"

// Cents represents a monetary amount at currency scale (1/100 units).
// Keeping amounts integral makes order-total arithmetic exact.
type Cents int64

// NewCents creates a Cents value from an int64 amount.
func NewCents(amount int64) Cents {
	return Cents(amount)
}

// Times multiplies a unit price by a quantity.
func (c Cents) Times(quantity int) Cents {
	return c * Cents(quantity)
}

// Add adds two amounts.
func (c Cents) Add(other Cents) Cents {
	return c + other
}

// IsPositive checks if the amount is greater than zero.
func (c Cents) IsPositive() bool {
	return c > 0
}

// Int64 returns the raw amount.
func (c Cents) Int64() int64 {
	return int64(c)
}

// String formats the amount with two decimal places.
func (c Cents) String() string {
	return fmt.Sprintf("%d.%02d", c/100, abs(int64(c)%100))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
