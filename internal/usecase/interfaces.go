package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/fraud"
)

// BalanceKey identifies one per-currency balance row of an account.
type BalanceKey struct {
	AccountID    string
	CurrencyCode string
}

// AccountRepository defines data access for accounts and their balances.
// Query methods exclude soft-deleted accounts unless stated otherwise.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	GetBalance(ctx context.Context, accountID, currencyCode string) (decimal.Decimal, error)
	// LockBalances creates missing balance rows at zero and locks the rows
	// for the given keys until the surrounding transaction ends. Callers must
	// pass keys in a globally consistent order.
	LockBalances(ctx context.Context, tx Transaction, keys []BalanceKey) (map[BalanceKey]decimal.Decimal, error)
	// ApplyDelta adjusts one locked balance row by delta. The store enforces
	// the non-negativity invariant as a final guard.
	ApplyDelta(ctx context.Context, tx Transaction, key BalanceKey, delta decimal.Decimal, updatedAt time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error
}

// TransactionRepository defines data access for transaction records.
// Query methods exclude soft-deleted records unless stated otherwise.
type TransactionRepository interface {
	Create(ctx context.Context, record *domain.Transaction) error
	CreateTx(ctx context.Context, tx Transaction, record *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIDIncludeDeleted is the explicit include-deleted lookup used by
	// restore flows.
	GetByIDIncludeDeleted(ctx context.Context, id string) (*domain.Transaction, error)
	SetStatusTx(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error
	SetStatus(ctx context.Context, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*domain.Transaction, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
	ListPendingSince(ctx context.Context, since time.Time, limit int) ([]*domain.Transaction, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id string) error

	// Fraud history reads.
	CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error)
	ListAmountsByActorTypeSince(ctx context.Context, actorID string, txType domain.TransactionType, since time.Time) ([]decimal.Decimal, error)
}

// CurrencyRepository defines data access for the currency catalog.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *domain.Currency) error
	GetByCode(ctx context.Context, code string) (*domain.Currency, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.Currency, error)
	UpdateRate(ctx context.Context, code string, rate decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release frees a claimed key whose operation failed before settling,
	// so a retry of the same intent is not rejected as a duplicate.
	Release(ctx context.Context, key string) error
}

// FraudAlert is the summary delivered when a settled transaction is flagged.
type FraudAlert struct {
	TransactionID string
	Amount        decimal.Decimal
	CurrencyCode  string
	Type          domain.TransactionType
	Reason        string
	CreatedAt     time.Time
}

// AlertNotifier delivers fraud alerts to an account contact. Fire-and-forget:
// delivery failures must never fail the ledger operation that triggered them.
type AlertNotifier interface {
	Notify(ctx context.Context, contact string, alert FraudAlert) error
}

// FraudEvaluator is the pipeline contract the orchestrator consumes.
type FraudEvaluator interface {
	Evaluate(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (fraud.Verdict, error)
}
