package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func seedRecord(t *testing.T, repo *mocks.MockTransactionRepository, record *domain.Transaction) {
	t.Helper()
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestTransactionUseCase_GetTransaction(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	seedRecord(t, repo, &domain.Transaction{
		ID:           "tx-1",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(100),
		CurrencyCode: "USD",
		Type:         domain.TypeDeposit,
		Status:       domain.StatusCompleted,
	})

	uc := usecase.NewTransactionUseCase(repo)

	t.Run("existing record", func(t *testing.T) {
		record, err := uc.GetTransaction(context.Background(), "tx-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.ID != "tx-1" {
			t.Errorf("expected tx-1, got %s", record.ID)
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := uc.GetTransaction(context.Background(), "ghost")
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionUseCase_ListByActor(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	recipient := "acc-1"
	seedRecord(t, repo, &domain.Transaction{
		ID:       "tx-1",
		SenderID: "acc-1",
		Type:     domain.TypeWithdrawal,
		Amount:   decimal.NewFromInt(10),
	})
	seedRecord(t, repo, &domain.Transaction{
		ID:          "tx-2",
		SenderID:    "acc-2",
		RecipientID: &recipient,
		Type:        domain.TypeTransfer,
		Amount:      decimal.NewFromInt(20),
	})
	seedRecord(t, repo, &domain.Transaction{
		ID:       "tx-3",
		SenderID: "acc-3",
		Type:     domain.TypeDeposit,
		Amount:   decimal.NewFromInt(30),
	})

	uc := usecase.NewTransactionUseCase(repo)

	records, err := uc.ListByActor(context.Background(), usecase.ListByActorInput{ActorID: "acc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both the sent and the received movement belong to the actor's history.
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
}

func TestTransactionUseCase_DeleteAndRestore(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	seedRecord(t, repo, &domain.Transaction{
		ID:           "tx-1",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(100),
		CurrencyCode: "USD",
		Type:         domain.TypeDeposit,
		Status:       domain.StatusCompleted,
		UpdatedAt:    time.Now().UTC(),
	})

	uc := usecase.NewTransactionUseCase(repo)

	if err := uc.DeleteTransaction(context.Background(), "tx-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := uc.GetTransaction(context.Background(), "tx-1"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound for deleted record, got %v", err)
	}

	restored, err := uc.RestoreTransaction(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.IsDeleted {
		t.Error("expected restored record to be visible")
	}
	// Restore never rewinds the lifecycle.
	if restored.Status != domain.StatusCompleted {
		t.Errorf("expected status %s after restore, got %s", domain.StatusCompleted, restored.Status)
	}
}

func TestTransactionUseCase_ListFlagged(t *testing.T) {
	repo := mocks.NewMockTransactionRepository()
	reason := "multiple transactions (6) detected within short time window"
	seedRecord(t, repo, &domain.Transaction{
		ID:         "tx-1",
		SenderID:   "acc-1",
		Amount:     decimal.NewFromInt(10),
		Type:       domain.TypeWithdrawal,
		Status:     domain.StatusFlagged,
		IsFlagged:  true,
		FlagReason: &reason,
	})
	seedRecord(t, repo, &domain.Transaction{
		ID:       "tx-2",
		SenderID: "acc-1",
		Amount:   decimal.NewFromInt(10),
		Type:     domain.TypeWithdrawal,
		Status:   domain.StatusCompleted,
	})

	uc := usecase.NewTransactionUseCase(repo)

	records, err := uc.ListFlagged(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "tx-1" {
		t.Errorf("expected only tx-1 flagged, got %d records", len(records))
	}
}
