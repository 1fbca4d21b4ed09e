package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusFlagged, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusFlagged, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFlagged, StatusCompleted, false},
		{StatusFlagged, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTransaction_Transition(t *testing.T) {
	now := time.Now().UTC()

	tx := &Transaction{Status: StatusPending}
	if err := tx.Transition(StatusCompleted, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", tx.Status)
	}

	// Terminal states are final.
	err := tx.Transition(StatusFlagged, now)
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestTransaction_Flag(t *testing.T) {
	now := time.Now().UTC()

	tx := &Transaction{Status: StatusPending}
	if err := tx.Flag("velocity exceeded", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.Status != StatusFlagged || !tx.IsFlagged {
		t.Error("expected transaction to be flagged")
	}

	if tx.FlagReason == nil || *tx.FlagReason != "velocity exceeded" {
		t.Errorf("flag reason not recorded: %v", tx.FlagReason)
	}

	// Flagging a settled transaction must fail.
	settled := &Transaction{Status: StatusCompleted}
	if err := settled.Flag("late verdict", now); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestTransaction_Validate(t *testing.T) {
	rate := decimal.NewFromFloat(0.9)
	target := decimal.NewFromInt(90)

	tests := []struct {
		name      string
		tx        Transaction
		errorType error
	}{
		{
			name: "valid deposit",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.NewFromInt(100),
				CurrencyCode: "USD",
				Type:         TypeDeposit,
			},
		},
		{
			name: "zero amount",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.Zero,
				CurrencyCode: "USD",
				Type:         TypeDeposit,
			},
			errorType: ErrInvalidAmount,
		},
		{
			name: "negative amount",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.NewFromInt(-5),
				CurrencyCode: "USD",
				Type:         TypeWithdrawal,
			},
			errorType: ErrInvalidAmount,
		},
		{
			name: "unknown type",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.NewFromInt(5),
				CurrencyCode: "USD",
				Type:         TransactionType("REFUND"),
			},
			errorType: ErrInvalidType,
		},
		{
			name: "transfer without recipient",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.NewFromInt(5),
				CurrencyCode: "USD",
				Type:         TypeTransfer,
			},
			errorType: ErrRecipientRequired,
		},
		{
			name: "transfer to self",
			tx: Transaction{
				SenderID:     "acc-1",
				RecipientID:  strPtr("acc-1"),
				Amount:       decimal.NewFromInt(5),
				CurrencyCode: "USD",
				Type:         TypeTransfer,
			},
			errorType: ErrSameAccount,
		},
		{
			name: "valid exchange",
			tx: Transaction{
				SenderID:       "acc-1",
				Amount:         decimal.NewFromInt(100),
				CurrencyCode:   "USD",
				Type:           TypeExchange,
				ExchangeRate:   &rate,
				TargetCurrency: strPtr("EUR"),
				TargetAmount:   &target,
			},
		},
		{
			name: "exchange missing target fields",
			tx: Transaction{
				SenderID:     "acc-1",
				Amount:       decimal.NewFromInt(100),
				CurrencyCode: "USD",
				Type:         TypeExchange,
			},
			errorType: ErrExchangeFieldsRequired,
		},
		{
			name: "exchange to same currency",
			tx: Transaction{
				SenderID:       "acc-1",
				Amount:         decimal.NewFromInt(100),
				CurrencyCode:   "USD",
				Type:           TypeExchange,
				ExchangeRate:   &rate,
				TargetCurrency: strPtr("USD"),
				TargetAmount:   &target,
			},
			errorType: ErrSameCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()

			if tt.errorType == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected %v, got %v", tt.errorType, err)
			}
		})
	}
}

func TestTransaction_RestoreKeepsStatus(t *testing.T) {
	now := time.Now().UTC()

	tx := &Transaction{Status: StatusCompleted}
	tx.SoftDelete(now)

	if !tx.IsDeleted {
		t.Fatal("expected transaction to be soft deleted")
	}

	tx.Restore()

	if tx.IsDeleted || tx.DeletedAt != nil {
		t.Fatal("expected transaction to be restored")
	}

	if tx.Status != StatusCompleted {
		t.Errorf("restore must not reset status, got %s", tx.Status)
	}
}
