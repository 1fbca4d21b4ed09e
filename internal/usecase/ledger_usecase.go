package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// LedgerUseCase is the transaction orchestrator: it sequences fraud
// screening, balance precondition checks, atomic mutation and status
// finalization for every movement kind. It is the only component that
// changes a balance.
type LedgerUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	txRepo       TransactionRepository
	currencyRepo CurrencyRepository
	pipeline     FraudEvaluator
	idGen        IDGenerator
	idemStore    IdempotencyStore // optional; nil disables dedupe
	retrier      Retrier          // optional; nil runs the section once
}

// NewLedgerUseCase creates a new LedgerUseCase. idemStore and retrier may be
// nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	currencyRepo CurrencyRepository,
	pipeline FraudEvaluator,
	idGen IDGenerator,
	idemStore IdempotencyStore,
	retrier Retrier,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		txRepo:       txRepo,
		currencyRepo: currencyRepo,
		pipeline:     pipeline,
		idGen:        idGen,
		idemStore:    idemStore,
		retrier:      retrier,
	}
}

// DepositInput represents a deposit intent.
type DepositInput struct {
	AccountID      string
	Amount         decimal.Decimal
	CurrencyCode   string
	Description    string
	IdempotencyKey string
}

// WithdrawInput represents a withdrawal intent.
type WithdrawInput struct {
	AccountID      string
	Amount         decimal.Decimal
	CurrencyCode   string
	Description    string
	IdempotencyKey string
}

// TransferInput represents a peer transfer intent.
type TransferInput struct {
	SenderID       string
	RecipientID    string
	Amount         decimal.Decimal
	CurrencyCode   string
	Description    string
	IdempotencyKey string
}

// ExchangeInput represents a currency exchange intent.
type ExchangeInput struct {
	AccountID      string
	SourceCurrency string
	TargetCurrency string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// leg is one signed balance adjustment of a movement.
type leg struct {
	key   BalanceKey
	delta decimal.Decimal
}

// Deposit increases the account's balance entry for the currency, creating
// it at zero first if absent.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.currencyMustBeActive(ctx, input.CurrencyCode); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	if replay, done, err := uc.beginIdempotent(ctx, input.IdempotencyKey); err != nil || done {
		return replay, err
	}

	now := time.Now().UTC()

	if err := uc.screen(ctx, input.AccountID, input.Amount, domain.TypeDeposit, now); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	record := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		SenderID:     input.AccountID,
		Amount:       input.Amount,
		CurrencyCode: input.CurrencyCode,
		Type:         domain.TypeDeposit,
		Status:       domain.StatusPending,
		Description:  input.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	legs := []leg{
		{key: BalanceKey{AccountID: input.AccountID, CurrencyCode: input.CurrencyCode}, delta: input.Amount},
	}

	if err := uc.settle(ctx, record, legs); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	uc.finishIdempotent(ctx, input.IdempotencyKey, record.ID)

	return record, nil
}

// Withdraw decreases the account's balance for the currency. The sufficiency
// check and the decrement happen on the same locked row; a shortfall leaves
// the balance untouched and persists a FAILED record.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if _, err := uc.currencyMustBeActive(ctx, input.CurrencyCode); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	if replay, done, err := uc.beginIdempotent(ctx, input.IdempotencyKey); err != nil || done {
		return replay, err
	}

	now := time.Now().UTC()

	if err := uc.screen(ctx, input.AccountID, input.Amount, domain.TypeWithdrawal, now); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	record := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		SenderID:     input.AccountID,
		Amount:       input.Amount,
		CurrencyCode: input.CurrencyCode,
		Type:         domain.TypeWithdrawal,
		Status:       domain.StatusPending,
		Description:  input.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	legs := []leg{
		{key: BalanceKey{AccountID: input.AccountID, CurrencyCode: input.CurrencyCode}, delta: input.Amount.Neg()},
	}

	if err := uc.settle(ctx, record, legs); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.recordFailure(ctx, record, "insufficient balance")
		}
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	uc.finishIdempotent(ctx, input.IdempotencyKey, record.ID)

	return record, nil
}

// Transfer moves amount between two accounts in one atomic unit; one record
// links both parties.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.SenderID == input.RecipientID {
		return nil, domain.ErrSameAccount
	}

	if _, err := uc.currencyMustBeActive(ctx, input.CurrencyCode); err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.SenderID); err != nil {
		return nil, err
	}

	exists, err := uc.accountRepo.ExistsByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrRecipientNotFound
	}

	if replay, done, err := uc.beginIdempotent(ctx, input.IdempotencyKey); err != nil || done {
		return replay, err
	}

	now := time.Now().UTC()

	if err := uc.screen(ctx, input.SenderID, input.Amount, domain.TypeTransfer, now); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	recipientID := input.RecipientID
	record := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		SenderID:     input.SenderID,
		RecipientID:  &recipientID,
		Amount:       input.Amount,
		CurrencyCode: input.CurrencyCode,
		Type:         domain.TypeTransfer,
		Status:       domain.StatusPending,
		Description:  input.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	legs := []leg{
		{key: BalanceKey{AccountID: input.SenderID, CurrencyCode: input.CurrencyCode}, delta: input.Amount.Neg()},
		{key: BalanceKey{AccountID: input.RecipientID, CurrencyCode: input.CurrencyCode}, delta: input.Amount},
	}

	if err := uc.settle(ctx, record, legs); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.recordFailure(ctx, record, "insufficient balance")
		}
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	uc.finishIdempotent(ctx, input.IdempotencyKey, record.ID)

	return record, nil
}

// Exchange converts amount from the source to the target currency inside
// the same account, both legs atomic. The record carries the applied rate
// and the target amount.
func (uc *LedgerUseCase) Exchange(ctx context.Context, input ExchangeInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.SourceCurrency == input.TargetCurrency {
		return nil, domain.ErrSameCurrency
	}

	source, err := uc.currencyMustBeActive(ctx, input.SourceCurrency)
	if err != nil {
		return nil, err
	}

	target, err := uc.currencyMustBeActive(ctx, input.TargetCurrency)
	if err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	if replay, done, err := uc.beginIdempotent(ctx, input.IdempotencyKey); err != nil || done {
		return replay, err
	}

	now := time.Now().UTC()

	// Exchange is screened like every other movement kind.
	if err := uc.screen(ctx, input.AccountID, input.Amount, domain.TypeExchange, now); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	targetAmount, err := domain.Convert(input.Amount, source.ExchangeRate, target.ExchangeRate)
	if err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	rate, err := domain.CrossRate(source.ExchangeRate, target.ExchangeRate)
	if err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	targetCurrency := input.TargetCurrency
	record := &domain.Transaction{
		ID:             uc.idGen.Generate(),
		SenderID:       input.AccountID,
		Amount:         input.Amount,
		CurrencyCode:   input.SourceCurrency,
		Type:           domain.TypeExchange,
		Status:         domain.StatusPending,
		Description:    input.Description,
		ExchangeRate:   &rate,
		TargetCurrency: &targetCurrency,
		TargetAmount:   &targetAmount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := record.Validate(); err != nil {
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	legs := []leg{
		{key: BalanceKey{AccountID: input.AccountID, CurrencyCode: input.SourceCurrency}, delta: input.Amount.Neg()},
		{key: BalanceKey{AccountID: input.AccountID, CurrencyCode: input.TargetCurrency}, delta: targetAmount},
	}

	if err := uc.settle(ctx, record, legs); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			uc.recordFailure(ctx, record, "insufficient balance")
		}
		return nil, uc.abortIdempotent(ctx, input.IdempotencyKey, err)
	}

	uc.finishIdempotent(ctx, input.IdempotencyKey, record.ID)

	return record, nil
}

// settle applies all legs and finalizes the record inside one database
// transaction: lock balance rows in sorted order, verify debit
// preconditions on the locked values, create the PENDING record, apply the
// deltas and transition to COMPLETED. Everything commits together or not
// at all.
func (uc *LedgerUseCase) settle(ctx context.Context, record *domain.Transaction, legs []leg) error {
	// DEADLOCK PREVENTION: lock order is global, sorted by (account, currency).
	keys := make([]BalanceKey, 0, len(legs))
	for _, l := range legs {
		keys = append(keys, l.key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AccountID != keys[j].AccountID {
			return keys[i].AccountID < keys[j].AccountID
		}
		return keys[i].CurrencyCode < keys[j].CurrencyCode
	})

	operation := func() error {
		// A retried attempt starts the lifecycle over.
		record.Status = domain.StatusPending

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
		}
		defer tx.Rollback(ctx)

		balances, err := uc.accountRepo.LockBalances(ctx, tx, keys)
		if err != nil {
			return err
		}

		for _, l := range legs {
			if l.delta.IsNegative() {
				current, ok := balances[l.key]
				if !ok {
					return domain.ErrAccountNotFound
				}
				if current.LessThan(l.delta.Neg()) {
					return domain.ErrInsufficientBalance
				}
			}
		}

		if err := uc.txRepo.CreateTx(ctx, tx, record); err != nil {
			return err
		}

		for _, l := range legs {
			if err := uc.accountRepo.ApplyDelta(ctx, tx, l.key, l.delta, record.UpdatedAt); err != nil {
				return err
			}
		}

		if err := record.Transition(domain.StatusCompleted, time.Now().UTC()); err != nil {
			return err
		}

		if err := uc.txRepo.SetStatusTx(ctx, tx, record.ID, record.Status, nil, record.UpdatedAt); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
		}

		return nil
	}

	if uc.retrier != nil {
		return uc.retrier.Retry(ctx, operation)
	}

	return operation()
}

// screen runs the fraud pipeline; a flagged verdict rejects the movement
// before any mutation.
func (uc *LedgerUseCase) screen(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) error {
	verdict, err := uc.pipeline.Evaluate(ctx, actorID, amount, txType, now)
	if err != nil {
		return err
	}

	if verdict.Flagged {
		return &domain.FraudFlaggedError{Reason: verdict.Reason}
	}

	return nil
}

// currencyMustBeActive resolves a catalog entry and requires it active.
func (uc *LedgerUseCase) currencyMustBeActive(ctx context.Context, code string) (*domain.Currency, error) {
	if err := domain.ValidateCurrencyCode(code); err != nil {
		return nil, err
	}

	currency, err := uc.currencyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !currency.IsActive {
		return nil, domain.ErrCurrencyInactive
	}

	return currency, nil
}

// recordFailure persists an audit record for an aborted movement. Best
// effort: the precondition error is what the caller sees. The abort reason
// goes into the description; FlagReason is reserved for fraud verdicts.
func (uc *LedgerUseCase) recordFailure(ctx context.Context, record *domain.Transaction, reason string) {
	now := time.Now().UTC()
	if err := record.Transition(domain.StatusFailed, now); err != nil {
		return
	}

	if record.Description == "" {
		record.Description = reason
	} else {
		record.Description += " (" + reason + ")"
	}

	_ = uc.txRepo.Create(ctx, record)
}

// beginIdempotent deduplicates a retried intent against the idempotency
// store. done=true means the caller should return replay (the original
// record) without mutating anything.
func (uc *LedgerUseCase) beginIdempotent(ctx context.Context, key string) (replay *domain.Transaction, done bool, err error) {
	if uc.idemStore == nil || key == "" {
		return nil, false, nil
	}

	exists, existing, err := uc.idemStore.CheckAndSet(ctx, key, nil, IdempotencyKeyTTL)
	if err != nil {
		return nil, false, err
	}

	if !exists {
		return nil, false, nil
	}

	id := string(existing)
	if id == "" || id == "processing" {
		return nil, true, domain.ErrDuplicateRequest
	}

	record, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, true, err
	}

	return record, true, nil
}

// finishIdempotent stores the settled record under the idempotency key.
// Best effort: a store hiccup here must not fail a committed movement.
func (uc *LedgerUseCase) finishIdempotent(ctx context.Context, key, transactionID string) {
	if uc.idemStore == nil || key == "" {
		return
	}

	_ = uc.idemStore.Update(ctx, key, []byte(transactionID), IdempotencyKeyTTL)
}

// abortIdempotent releases the claimed key when a movement fails after the
// claim, so retrying the same intent is not rejected as a duplicate for the
// key's full TTL. Returns err unchanged for the caller to propagate.
func (uc *LedgerUseCase) abortIdempotent(ctx context.Context, key string, err error) error {
	if uc.idemStore != nil && key != "" {
		_ = uc.idemStore.Release(ctx, key)
	}

	return err
}
