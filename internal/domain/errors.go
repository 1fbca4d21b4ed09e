package domain

import (
	"errors"
	"fmt"
)

var (
	// Validation errors
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidType            = errors.New("unknown transaction type")
	ErrInvalidCurrencyCode    = errors.New("invalid currency code")
	ErrInvalidExchangeRate    = errors.New("exchange rate must be positive")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrSameCurrency           = errors.New("cannot exchange a currency for itself")
	ErrRecipientRequired      = errors.New("transfer requires a recipient")
	ErrExchangeFieldsRequired = errors.New("exchange requires rate, target currency and target amount")

	// Lookup errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrCurrencyNotFound    = errors.New("currency not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Precondition errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCurrencyInactive    = errors.New("currency is not active")
	ErrCurrencyExists      = errors.New("currency code already exists")
	ErrDuplicateRequest    = errors.New("duplicate request still in flight")

	// State machine errors
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")

	// ErrTransientStore marks a failure where the atomic mutation could not be
	// committed. Safe to retry; no partial effect was applied.
	ErrTransientStore = errors.New("transient store failure")

	// ErrInconsistent marks a detected partial multi-leg application. Never
	// recovered; surfaced for manual reconciliation.
	ErrInconsistent = errors.New("ledger inconsistency detected")
)

// FraudFlaggedError is returned when the fraud pipeline blocks a movement
// before settlement. Reason carries the verdict of the first flagging check.
type FraudFlaggedError struct {
	Reason string
}

func (e *FraudFlaggedError) Error() string {
	return fmt.Sprintf("transaction flagged for review: %s", e.Reason)
}

// IsFraudFlagged reports whether err is a fraud pipeline rejection.
func IsFraudFlagged(err error) bool {
	var fe *FraudFlaggedError
	return errors.As(err, &fe)
}
