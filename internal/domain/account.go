package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a wallet holder with one balance entry per currency.
type Account struct {
	ID        string
	Name      string
	Email     string
	Balances  []Balance
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
	DeletedAt *time.Time
}

// Balance is the amount an account holds in one currency.
type Balance struct {
	AccountID    string
	CurrencyCode string
	Amount       decimal.Decimal
	UpdatedAt    time.Time
}

// BalanceFor returns the balance entry for a currency, or zero if absent.
func (a *Account) BalanceFor(currencyCode string) decimal.Decimal {
	for _, b := range a.Balances {
		if b.CurrencyCode == currencyCode {
			return b.Amount
		}
	}
	return decimal.Zero
}

// ValidateDebit checks if the balance in a currency can be reduced by amount.
func (a *Account) ValidateDebit(currencyCode string, amount decimal.Decimal) error {
	if a.BalanceFor(currencyCode).LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// SoftDelete marks the account as logically removed.
func (a *Account) SoftDelete(at time.Time) {
	a.IsDeleted = true
	a.DeletedAt = &at
}

// Restore clears the soft-delete markers.
func (a *Account) Restore() {
	a.IsDeleted = false
	a.DeletedAt = nil
}
