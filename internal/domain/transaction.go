package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of money movement.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
	TypeExchange   TransactionType = "EXCHANGE"
)

var validTypes = map[TransactionType]bool{
	TypeDeposit:    true,
	TypeWithdrawal: true,
	TypeTransfer:   true,
	TypeExchange:   true,
}

// IsValid checks if the type is a known movement kind.
func (t TransactionType) IsValid() bool {
	return validTypes[t]
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusFlagged   TransactionStatus = "FLAGGED"
)

// allowedTransitions encodes the state machine: PENDING is the only
// non-terminal state.
var allowedTransitions = map[TransactionStatus]map[TransactionStatus]bool{
	StatusPending: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusFlagged:   true,
	},
}

// CanTransitionTo reports whether moving to next is a legal transition.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return allowedTransitions[s][next]
}

// IsTerminal reports whether the status is final.
func (s TransactionStatus) IsTerminal() bool {
	return s != StatusPending
}

// Transaction is the immutable record of a movement intent plus its
// mutable lifecycle state.
type Transaction struct {
	ID           string
	SenderID     string
	RecipientID  *string
	Amount       decimal.Decimal
	CurrencyCode string
	Type         TransactionType
	Status       TransactionStatus
	Description  string
	IsFlagged    bool
	FlagReason   *string

	// Exchange-only fields.
	ExchangeRate   *decimal.Decimal
	TargetCurrency *string
	TargetAmount   *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool
	DeletedAt *time.Time
}

// Validate validates the movement intent.
func (t *Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if t.Type == TypeTransfer {
		if t.RecipientID == nil {
			return ErrRecipientRequired
		}
		if *t.RecipientID == t.SenderID {
			return ErrSameAccount
		}
	}

	if t.Type == TypeExchange {
		if t.TargetCurrency == nil || t.ExchangeRate == nil || t.TargetAmount == nil {
			return ErrExchangeFieldsRequired
		}
		if *t.TargetCurrency == t.CurrencyCode {
			return ErrSameCurrency
		}
	}

	return nil
}

// Transition moves the transaction to the next status, enforcing the
// state machine. The updated timestamp is bumped on success.
func (t *Transaction) Transition(next TransactionStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}

	t.Status = next
	t.UpdatedAt = at

	return nil
}

// Flag transitions to FLAGGED recording the verdict reason. Used by the
// asynchronous re-scan path only; balances are never reversed here.
func (t *Transaction) Flag(reason string, at time.Time) error {
	if err := t.Transition(StatusFlagged, at); err != nil {
		return err
	}

	t.IsFlagged = true
	t.FlagReason = &reason

	return nil
}

// SoftDelete marks the record as logically removed. Status is untouched.
func (t *Transaction) SoftDelete(at time.Time) {
	t.IsDeleted = true
	t.DeletedAt = &at
}

// Restore clears the soft-delete markers without resetting status.
func (t *Transaction) Restore() {
	t.IsDeleted = false
	t.DeletedAt = nil
}
