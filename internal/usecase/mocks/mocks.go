package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/fraud"
	"github.com/iho/gowallet/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository backed
// by an in-memory map. Any Func field overrides the default behavior.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	balances map[usecase.BalanceKey]decimal.Decimal

	CreateFunc       func(ctx context.Context, account *domain.Account) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Account, error)
	ExistsByIDFunc   func(ctx context.Context, id string) (bool, error)
	GetBalanceFunc   func(ctx context.Context, accountID, currencyCode string) (decimal.Decimal, error)
	LockBalancesFunc func(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) (map[usecase.BalanceKey]decimal.Decimal, error)
	ApplyDeltaFunc   func(ctx context.Context, tx usecase.Transaction, key usecase.BalanceKey, delta decimal.Decimal, updatedAt time.Time) error
	SoftDeleteFunc   func(ctx context.Context, id string, at time.Time) error
	RestoreFunc      func(ctx context.Context, id string) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
		balances: make(map[usecase.BalanceKey]decimal.Decimal),
	}
}

// Seed installs an account and its balances.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	for _, b := range account.Balances {
		m.balances[usecase.BalanceKey{AccountID: account.ID, CurrencyCode: b.CurrencyCode}] = b.Amount
	}
}

// BalanceOf reads a seeded balance.
func (m *MockAccountRepository) BalanceOf(accountID, currencyCode string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[usecase.BalanceKey{AccountID: accountID, CurrencyCode: currencyCode}]
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok && !acc.IsDeleted {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if m.ExistsByIDFunc != nil {
		return m.ExistsByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	return ok && !acc.IsDeleted, nil
}

func (m *MockAccountRepository) GetBalance(ctx context.Context, accountID, currencyCode string) (decimal.Decimal, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, accountID, currencyCode)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[usecase.BalanceKey{AccountID: accountID, CurrencyCode: currencyCode}], nil
}

func (m *MockAccountRepository) LockBalances(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) (map[usecase.BalanceKey]decimal.Decimal, error) {
	if m.LockBalancesFunc != nil {
		return m.LockBalancesFunc(ctx, tx, keys)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[usecase.BalanceKey]decimal.Decimal, len(keys))
	for _, key := range keys {
		if _, ok := m.balances[key]; !ok {
			m.balances[key] = decimal.Zero
		}
		out[key] = m.balances[key]
	}
	return out, nil
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, key usecase.BalanceKey, delta decimal.Decimal, updatedAt time.Time) error {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, tx, key, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.balances[key].Add(delta)
	if next.IsNegative() {
		return domain.ErrInsufficientBalance
	}
	m.balances[key] = next
	return nil
}

func (m *MockAccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.SoftDelete(at)
		return nil
	}
	return domain.ErrAccountNotFound
}

func (m *MockAccountRepository) Restore(ctx context.Context, id string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Restore()
		return nil
	}
	return domain.ErrAccountNotFound
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.Transaction

	CreateFunc                      func(ctx context.Context, record *domain.Transaction) error
	CreateTxFunc                    func(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error
	GetByIDFunc                     func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDIncludeDeletedFunc       func(ctx context.Context, id string) (*domain.Transaction, error)
	SetStatusTxFunc                 func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error
	SetStatusFunc                   func(ctx context.Context, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error
	ListByActorFunc                 func(ctx context.Context, actorID string, limit, offset int) ([]*domain.Transaction, error)
	ListFlaggedFunc                 func(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
	ListPendingSinceFunc            func(ctx context.Context, since time.Time, limit int) ([]*domain.Transaction, error)
	SoftDeleteFunc                  func(ctx context.Context, id string, at time.Time) error
	RestoreFunc                     func(ctx context.Context, id string) error
	CountByActorSinceFunc           func(ctx context.Context, actorID string, since time.Time) (int, error)
	ListAmountsByActorTypeSinceFunc func(ctx context.Context, actorID string, txType domain.TransactionType, since time.Time) ([]decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		records: make(map[string]*domain.Transaction),
	}
}

// Record reads a stored record by ID, nil if absent.
func (m *MockTransactionRepository) Record(id string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[id]
}

// All returns every stored record.
func (m *MockTransactionRepository) All() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

func (m *MockTransactionRepository) store(record *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[record.ID] = &clone
}

func (m *MockTransactionRepository) Create(ctx context.Context, record *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	m.store(record)
	return nil
}

func (m *MockTransactionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, record)
	}
	m.store(record)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok && !r.IsDeleted {
		return r, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDIncludeDeleted(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDIncludeDeletedFunc != nil {
		return m.GetByIDIncludeDeletedFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) SetStatusTx(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error {
	if m.SetStatusTxFunc != nil {
		return m.SetStatusTxFunc(ctx, tx, id, status, reason, updatedAt)
	}
	return m.SetStatus(ctx, id, status, reason, updatedAt)
}

func (m *MockTransactionRepository) SetStatus(ctx context.Context, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status, reason, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	if reason != nil {
		r.IsFlagged = status == domain.StatusFlagged
		r.FlagReason = reason
	}
	return nil
}

func (m *MockTransactionRepository) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByActorFunc != nil {
		return m.ListByActorFunc(ctx, actorID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, r := range m.records {
		if r.IsDeleted {
			continue
		}
		if r.SenderID == actorID || (r.RecipientID != nil && *r.RecipientID == actorID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) ListFlagged(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListFlaggedFunc != nil {
		return m.ListFlaggedFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, r := range m.records {
		if r.IsFlagged && !r.IsDeleted {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) ListPendingSince(ctx context.Context, since time.Time, limit int) ([]*domain.Transaction, error) {
	if m.ListPendingSinceFunc != nil {
		return m.ListPendingSinceFunc(ctx, since, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, r := range m.records {
		if r.Status == domain.StatusPending && !r.IsDeleted && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		r.SoftDelete(at)
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) Restore(ctx context.Context, id string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		r.Restore()
		return nil
	}
	return domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	if m.CountByActorSinceFunc != nil {
		return m.CountByActorSinceFunc(ctx, actorID, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.records {
		if r.SenderID == actorID && !r.IsDeleted && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockTransactionRepository) ListAmountsByActorTypeSince(ctx context.Context, actorID string, txType domain.TransactionType, since time.Time) ([]decimal.Decimal, error) {
	if m.ListAmountsByActorTypeSinceFunc != nil {
		return m.ListAmountsByActorTypeSinceFunc(ctx, actorID, txType, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []decimal.Decimal
	for _, r := range m.records {
		if r.SenderID == actorID && r.Type == txType && !r.IsDeleted && !r.CreatedAt.Before(since) {
			out = append(out, r.Amount)
		}
	}
	return out, nil
}

// MockCurrencyRepository is a mock implementation of CurrencyRepository.
type MockCurrencyRepository struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	CreateFunc     func(ctx context.Context, currency *domain.Currency) error
	GetByCodeFunc  func(ctx context.Context, code string) (*domain.Currency, error)
	ListFunc       func(ctx context.Context, includeInactive bool) ([]*domain.Currency, error)
	UpdateRateFunc func(ctx context.Context, code string, rate decimal.Decimal, updatedAt time.Time) error
	SetActiveFunc  func(ctx context.Context, code string, active bool, updatedAt time.Time) error
}

func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{
		currencies: make(map[string]*domain.Currency),
	}
}

// Seed installs a catalog entry.
func (m *MockCurrencyRepository) Seed(currency *domain.Currency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[currency.Code] = currency
}

func (m *MockCurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.currencies[currency.Code]; ok {
		return domain.ErrCurrencyExists
	}
	m.currencies[currency.Code] = currency
	return nil
}

func (m *MockCurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.currencies[code]; ok {
		return c, nil
	}
	return nil, domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) List(ctx context.Context, includeInactive bool) ([]*domain.Currency, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, includeInactive)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Currency
	for _, c := range m.currencies {
		if c.IsActive || includeInactive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCurrencyRepository) UpdateRate(ctx context.Context, code string, rate decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateRateFunc != nil {
		return m.UpdateRateFunc(ctx, code, rate, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.currencies[code]; ok {
		c.ExchangeRate = rate
		c.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, code, active, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.currencies[code]; ok {
		c.IsActive = active
		c.UpdatedAt = updatedAt
		return nil
	}
	return domain.ErrCurrencyNotFound
}

// MockTransaction is a mock database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock TransactionManager. Begin serializes
// callers on an internal mutex until Commit or Rollback, approximating
// row-lock behavior closely enough for concurrency tests.
type MockTransactionManager struct {
	mu sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	var once sync.Once
	release := func() { once.Do(m.mu.Unlock) }
	return &MockTransaction{
		CommitFunc:   func(ctx context.Context) error { release(); return nil },
		RollbackFunc: func(ctx context.Context) error { release(); return nil },
	}, nil
}

// MockIDGenerator is a mock IDGenerator producing sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "id-" + itoa(m.next)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// MockIdempotencyStore is a mock IdempotencyStore backed by a map.
type MockIdempotencyStore struct {
	mu     sync.Mutex
	values map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{values: make(map[string][]byte)}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.values[key] = response
	} else {
		m.values[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// MockFraudEvaluator is a mock FraudEvaluator; the zero value clears
// everything.
type MockFraudEvaluator struct {
	Verdict fraud.Verdict
	Err     error

	EvaluateFunc func(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (fraud.Verdict, error)
}

func (m *MockFraudEvaluator) Evaluate(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (fraud.Verdict, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, actorID, amount, txType, now)
	}
	return m.Verdict, m.Err
}
