package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository. Balance entries
// live in their own table keyed by (account_id, currency_code) so each
// currency can be locked independently.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account with its balance entries. Soft-deleted
// accounts are invisible here.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, email, is_deleted, deleted_at, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND is_deleted = false
	`

	account, err := r.scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	balances, err := r.listBalances(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Balances = balances

	return account, nil
}

// ExistsByID reports whether a live account exists.
func (r *AccountRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND is_deleted = false)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, id).Scan(&exists)

	return exists, err
}

// GetBalance reads one balance entry; a missing row reads as zero.
func (r *AccountRepository) GetBalance(ctx context.Context, accountID, currencyCode string) (decimal.Decimal, error) {
	query := `
		SELECT amount
		FROM account_balances
		WHERE account_id = $1 AND currency_code = $2
	`

	var amount pgtype.Numeric
	err := r.pool.QueryRow(ctx, query, accountID, currencyCode).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(amount), nil
}

// LockBalances creates any missing entries at zero, then takes FOR UPDATE
// row locks. Callers pass keys pre-sorted; locking in that order keeps the
// global lock order consistent across concurrent movements.
func (r *AccountRepository) LockBalances(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) (map[usecase.BalanceKey]decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	insertQuery := `
		INSERT INTO account_balances (account_id, currency_code, amount, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (account_id, currency_code) DO NOTHING
	`
	lockQuery := `
		SELECT amount
		FROM account_balances
		WHERE account_id = $1 AND currency_code = $2
		FOR UPDATE
	`

	balances := make(map[usecase.BalanceKey]decimal.Decimal, len(keys))

	for _, key := range keys {
		if _, err := pgxTx.Exec(ctx, insertQuery, key.AccountID, key.CurrencyCode); err != nil {
			return nil, err
		}

		var amount pgtype.Numeric
		if err := pgxTx.QueryRow(ctx, lockQuery, key.AccountID, key.CurrencyCode).Scan(&amount); err != nil {
			return nil, err
		}

		balances[key] = numericToDecimal(amount)
	}

	return balances, nil
}

// ApplyDelta adjusts one balance entry. The row must already be locked by
// LockBalances inside the same transaction.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, key usecase.BalanceKey, delta decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE account_balances
		SET amount = amount + $3, updated_at = $4
		WHERE account_id = $1 AND currency_code = $2
	`

	tag, err := pgxTx.Exec(ctx, query,
		key.AccountID,
		key.CurrencyCode,
		decimalToNumeric(delta),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInconsistent
	}

	return nil
}

// SoftDelete marks the account deleted; balances and history remain.
func (r *AccountRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE accounts
		SET is_deleted = true, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = false
	`

	tag, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Restore reverses a soft delete.
func (r *AccountRepository) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET is_deleted = false, deleted_at = NULL, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) listBalances(ctx context.Context, accountID string) ([]domain.Balance, error) {
	query := `
		SELECT account_id, currency_code, amount, updated_at
		FROM account_balances
		WHERE account_id = $1
		ORDER BY currency_code
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []domain.Balance
	for rows.Next() {
		var (
			balance   domain.Balance
			amount    pgtype.Numeric
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&balance.AccountID, &balance.CurrencyCode, &amount, &updatedAt); err != nil {
			return nil, err
		}
		balance.Amount = numericToDecimal(amount)
		balance.UpdatedAt = updatedAt.Time
		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		deletedAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.IsDeleted,
		&deletedAt,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
