package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/fraud"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestFraudScanUseCase_Rescan(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockAlertNotifier(ctrl)

	accRepo := mocks.NewMockAccountRepository()
	accRepo.Seed(&domain.Account{
		ID:    "acc-1",
		Name:  "Alice",
		Email: "alice@example.com",
	})

	txRepo := mocks.NewMockTransactionRepository()
	now := time.Now().UTC()
	seedRecord(t, txRepo, &domain.Transaction{
		ID:           "tx-pending-big",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(20000),
		CurrencyCode: "USD",
		Type:         domain.TypeWithdrawal,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	})
	seedRecord(t, txRepo, &domain.Transaction{
		ID:           "tx-pending-small",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "USD",
		Type:         domain.TypeDeposit,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	})
	seedRecord(t, txRepo, &domain.Transaction{
		ID:           "tx-completed",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(30000),
		CurrencyCode: "USD",
		Type:         domain.TypeWithdrawal,
		Status:       domain.StatusCompleted,
		CreatedAt:    now,
	})

	pipeline := &mocks.MockFraudEvaluator{
		EvaluateFunc: func(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, at time.Time) (fraud.Verdict, error) {
			if amount.GreaterThan(decimal.NewFromInt(10000)) {
				return fraud.Verdict{Flagged: true, Reason: "transaction amount (" + amount.String() + ") exceeds large transaction threshold"}, nil
			}
			return fraud.Clear, nil
		},
	}

	notifier.EXPECT().
		Notify(gomock.Any(), "alice@example.com", gomock.Any()).
		DoAndReturn(func(ctx context.Context, contact string, alert usecase.FraudAlert) error {
			if alert.TransactionID != "tx-pending-big" {
				t.Errorf("expected alert for tx-pending-big, got %s", alert.TransactionID)
			}
			return nil
		})

	uc := usecase.NewFraudScanUseCase(txRepo, accRepo, pipeline, notifier, nil)

	report, err := uc.Rescan(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// FLAGGED is reachable from PENDING only; the completed record is out
	// of scope no matter its amount.
	if report.Scanned != 2 {
		t.Errorf("expected 2 scanned, got %d", report.Scanned)
	}
	if report.Flagged != 1 {
		t.Errorf("expected 1 flagged, got %d", report.Flagged)
	}
	if report.Notified != 1 {
		t.Errorf("expected 1 notified, got %d", report.Notified)
	}

	flagged := txRepo.Record("tx-pending-big")
	if flagged.Status != domain.StatusFlagged {
		t.Errorf("expected status %s, got %s", domain.StatusFlagged, flagged.Status)
	}
	if flagged.FlagReason == nil || *flagged.FlagReason == "" {
		t.Error("expected a persisted flag reason")
	}

	untouched := txRepo.Record("tx-completed")
	if untouched.Status != domain.StatusCompleted {
		t.Errorf("expected completed record untouched, got %s", untouched.Status)
	}
}

func TestFraudScanUseCase_RescanIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockAlertNotifier(ctrl)

	accRepo := mocks.NewMockAccountRepository()
	accRepo.Seed(&domain.Account{ID: "acc-1", Name: "Alice", Email: "alice@example.com"})

	txRepo := mocks.NewMockTransactionRepository()
	now := time.Now().UTC()
	seedRecord(t, txRepo, &domain.Transaction{
		ID:           "tx-1",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(20000),
		CurrencyCode: "USD",
		Type:         domain.TypeWithdrawal,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	})

	pipeline := &mocks.MockFraudEvaluator{
		Verdict: fraud.Verdict{Flagged: true, Reason: "transaction amount (20000) exceeds large transaction threshold"},
	}

	// One alert total across both passes.
	notifier.EXPECT().Notify(gomock.Any(), "alice@example.com", gomock.Any()).Return(nil).Times(1)

	uc := usecase.NewFraudScanUseCase(txRepo, accRepo, pipeline, notifier, nil)

	since := now.Add(-time.Hour)
	first, err := uc.Rescan(context.Background(), since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Flagged != 1 {
		t.Fatalf("expected 1 flagged on first pass, got %d", first.Flagged)
	}

	// The overlapping window sees no PENDING records the second time.
	second, err := uc.Rescan(context.Background(), since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Scanned != 0 || second.Flagged != 0 {
		t.Errorf("expected nothing scanned on second pass, got scanned=%d flagged=%d", second.Scanned, second.Flagged)
	}
}

func TestFraudScanUseCase_NotificationFailureDoesNotFailScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockAlertNotifier(ctrl)

	accRepo := mocks.NewMockAccountRepository()
	accRepo.Seed(&domain.Account{ID: "acc-1", Name: "Alice", Email: "alice@example.com"})

	txRepo := mocks.NewMockTransactionRepository()
	now := time.Now().UTC()
	seedRecord(t, txRepo, &domain.Transaction{
		ID:           "tx-1",
		SenderID:     "acc-1",
		Amount:       decimal.NewFromInt(20000),
		CurrencyCode: "USD",
		Type:         domain.TypeWithdrawal,
		Status:       domain.StatusPending,
		CreatedAt:    now,
	})

	pipeline := &mocks.MockFraudEvaluator{
		Verdict: fraud.Verdict{Flagged: true, Reason: "transaction amount (20000) exceeds large transaction threshold"},
	}

	notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("smtp unreachable"))

	uc := usecase.NewFraudScanUseCase(txRepo, accRepo, pipeline, notifier, nil)

	report, err := uc.Rescan(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Flagged != 1 {
		t.Errorf("expected 1 flagged, got %d", report.Flagged)
	}
	if report.Notified != 0 {
		t.Errorf("expected 0 notified, got %d", report.Notified)
	}

	// The flag sticks even when delivery fails.
	if got := txRepo.Record("tx-1").Status; got != domain.StatusFlagged {
		t.Errorf("expected status %s, got %s", domain.StatusFlagged, got)
	}
}

func TestFraudScanUseCase_EvaluatorErrorSkipsRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockAlertNotifier(ctrl)

	accRepo := mocks.NewMockAccountRepository()
	txRepo := mocks.NewMockTransactionRepository()
	now := time.Now().UTC()
	seedRecord(t, txRepo, &domain.Transaction{
		ID:        "tx-1",
		SenderID:  "acc-1",
		Amount:    decimal.NewFromInt(100),
		Type:      domain.TypeWithdrawal,
		Status:    domain.StatusPending,
		CreatedAt: now,
	})

	pipeline := &mocks.MockFraudEvaluator{Err: errors.New("history query failed")}

	uc := usecase.NewFraudScanUseCase(txRepo, accRepo, pipeline, notifier, nil)

	report, err := uc.Rescan(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Flagged != 0 {
		t.Errorf("expected 0 flagged, got %d", report.Flagged)
	}

	// An evaluator failure leaves the record PENDING for the next pass.
	if got := txRepo.Record("tx-1").Status; got != domain.StatusPending {
		t.Errorf("expected status %s, got %s", domain.StatusPending, got)
	}
}
