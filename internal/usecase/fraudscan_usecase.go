package usecase

import (
	"context"
	"time"

	"log/slog"

	"github.com/iho/gowallet/internal/domain"
)

// FraudScanUseCase re-runs the fraud pipeline over recently recorded
// transactions that are still PENDING. Flagging here annotates the record
// and notifies the account contact; it never reverses a balance mutation.
// Operating on PENDING records only keeps overlapping scan windows
// idempotent.
type FraudScanUseCase struct {
	txRepo      TransactionRepository
	accountRepo AccountRepository
	pipeline    FraudEvaluator
	notifier    AlertNotifier
	logger      *slog.Logger
}

// NewFraudScanUseCase creates a new FraudScanUseCase.
func NewFraudScanUseCase(
	txRepo TransactionRepository,
	accountRepo AccountRepository,
	pipeline FraudEvaluator,
	notifier AlertNotifier,
	logger *slog.Logger,
) *FraudScanUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &FraudScanUseCase{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		pipeline:    pipeline,
		notifier:    notifier,
		logger:      logger,
	}
}

// ScanReport summarizes one re-scan pass.
type ScanReport struct {
	Scanned  int
	Flagged  int
	Notified int
	Since    time.Time
}

// Rescan re-evaluates PENDING transactions created since the cutoff. Each
// flagged record transitions to FLAGGED with the verdict reason persisted,
// then the account contact is notified. Notification failures are logged
// and swallowed.
func (uc *FraudScanUseCase) Rescan(ctx context.Context, since time.Time) (*ScanReport, error) {
	records, err := uc.txRepo.ListPendingSince(ctx, since, RescanBatchSize)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{Since: since}

	now := time.Now().UTC()

	for _, record := range records {
		report.Scanned++

		verdict, err := uc.pipeline.Evaluate(ctx, record.SenderID, record.Amount, record.Type, now)
		if err != nil {
			uc.logger.Error("fraud re-scan evaluation failed",
				"transaction_id", record.ID,
				"error", err,
			)
			continue
		}

		if !verdict.Flagged {
			continue
		}

		if err := record.Flag(verdict.Reason, now); err != nil {
			// Raced with settlement; the record is no longer PENDING.
			continue
		}

		reason := verdict.Reason
		if err := uc.txRepo.SetStatus(ctx, record.ID, domain.StatusFlagged, &reason, now); err != nil {
			uc.logger.Error("failed to persist fraud flag",
				"transaction_id", record.ID,
				"error", err,
			)
			continue
		}

		report.Flagged++

		if uc.notify(ctx, record, verdict.Reason) {
			report.Notified++
		}
	}

	return report, nil
}

// notify delivers the alert to the sender's contact. Failures never
// propagate to the scan result.
func (uc *FraudScanUseCase) notify(ctx context.Context, record *domain.Transaction, reason string) bool {
	account, err := uc.accountRepo.GetByID(ctx, record.SenderID)
	if err != nil {
		uc.logger.Warn("cannot resolve alert contact",
			"transaction_id", record.ID,
			"account_id", record.SenderID,
			"error", err,
		)
		return false
	}

	alert := FraudAlert{
		TransactionID: record.ID,
		Amount:        record.Amount,
		CurrencyCode:  record.CurrencyCode,
		Type:          record.Type,
		Reason:        reason,
		CreatedAt:     record.CreatedAt,
	}

	if err := uc.notifier.Notify(ctx, account.Email, alert); err != nil {
		uc.logger.Warn("fraud alert delivery failed",
			"transaction_id", record.ID,
			"error", err,
		)
		return false
	}

	return true
}
