package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is a catalog entry with an exchange rate relative to the base unit.
type Currency struct {
	Code         string
	Name         string
	Symbol       string
	ExchangeRate decimal.Decimal
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the catalog entry is well formed.
func (c *Currency) Validate() error {
	if err := ValidateCurrencyCode(c.Code); err != nil {
		return err
	}

	if c.ExchangeRate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidExchangeRate
	}

	return nil
}
