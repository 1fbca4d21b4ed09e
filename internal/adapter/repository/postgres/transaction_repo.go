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

const transactionColumns = `
	id, sender_id, recipient_id, amount, currency_code, type, status,
	description, is_flagged, flag_reason, exchange_rate, target_currency,
	target_amount, is_deleted, deleted_at, created_at, updated_at
`

// TransactionRepository implements usecase.TransactionRepository. Every
// read path filters soft-deleted rows unless stated otherwise.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const insertTransactionQuery = `
	INSERT INTO transactions (
		id, sender_id, recipient_id, amount, currency_code, type, status,
		description, is_flagged, flag_reason, exchange_rate, target_currency,
		target_amount, is_deleted, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, $14, $15)
`

// Create inserts a record outside any caller-managed transaction. Used for
// audit records of aborted movements.
func (r *TransactionRepository) Create(ctx context.Context, record *domain.Transaction) error {
	_, err := r.pool.Exec(ctx, insertTransactionQuery, insertArgs(record)...)

	return err
}

// CreateTx inserts a record inside the caller's transaction.
func (r *TransactionRepository) CreateTx(ctx context.Context, tx usecase.Transaction, record *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, insertTransactionQuery, insertArgs(record)...)

	return err
}

// GetByID retrieves a live record by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND is_deleted = false
	`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDIncludeDeleted retrieves a record regardless of soft-delete state.
func (r *TransactionRepository) GetByIDIncludeDeleted(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

const setStatusQuery = `
	UPDATE transactions
	SET status = $2,
	    is_flagged = ($2 = 'FLAGGED'),
	    flag_reason = COALESCE($3, flag_reason),
	    updated_at = $4
	WHERE id = $1 AND is_deleted = false
`

// SetStatusTx finalizes a record inside the caller's transaction.
func (r *TransactionRepository) SetStatusTx(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, setStatusQuery, id, string(status), reason, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// SetStatus finalizes a record outside any caller-managed transaction.
func (r *TransactionRepository) SetStatus(ctx context.Context, id string, status domain.TransactionStatus, reason *string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, setStatusQuery, id, string(status), reason, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByActor lists records where the actor is sender or recipient, newest
// first.
func (r *TransactionRepository) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (sender_id = $1 OR recipient_id = $1) AND is_deleted = false
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, query, actorID, limit, offset)
}

// ListFlagged lists flagged records, newest first.
func (r *TransactionRepository) ListFlagged(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE is_flagged = true AND is_deleted = false
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.list(ctx, query, limit, offset)
}

// ListPendingSince lists PENDING records created at or after the cutoff,
// oldest first so a truncated batch is resumed next pass.
func (r *TransactionRepository) ListPendingSince(ctx context.Context, since time.Time, limit int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'PENDING' AND is_deleted = false AND created_at >= $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	return r.list(ctx, query, timeToPgTimestamptz(since), limit)
}

// SoftDelete marks a record deleted.
func (r *TransactionRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE transactions
		SET is_deleted = true, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = false
	`

	tag, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Restore reverses a soft delete. Status is untouched.
func (r *TransactionRepository) Restore(ctx context.Context, id string) error {
	query := `
		UPDATE transactions
		SET is_deleted = false, deleted_at = NULL, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// CountByActorSince counts the actor's recent movements for the velocity
// check.
func (r *TransactionRepository) CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE sender_id = $1 AND is_deleted = false AND created_at >= $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, actorID, timeToPgTimestamptz(since)).Scan(&count)

	return count, err
}

// ListAmountsByActorTypeSince lists the actor's recent amounts of one
// movement kind for the deviation check.
func (r *TransactionRepository) ListAmountsByActorTypeSince(ctx context.Context, actorID string, txType domain.TransactionType, since time.Time) ([]decimal.Decimal, error) {
	query := `
		SELECT amount
		FROM transactions
		WHERE sender_id = $1 AND type = $2 AND is_deleted = false AND created_at >= $3
	`

	rows, err := r.pool.Query(ctx, query, actorID, string(txType), timeToPgTimestamptz(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var amount pgtype.Numeric
		if err := rows.Scan(&amount); err != nil {
			return nil, err
		}
		amounts = append(amounts, numericToDecimal(amount))
	}

	return amounts, rows.Err()
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.Transaction
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func insertArgs(record *domain.Transaction) []any {
	var exchangeRate, targetAmount any
	if record.ExchangeRate != nil {
		exchangeRate = decimalToNumeric(*record.ExchangeRate)
	}
	if record.TargetAmount != nil {
		targetAmount = decimalToNumeric(*record.TargetAmount)
	}

	return []any{
		record.ID,
		record.SenderID,
		record.RecipientID,
		decimalToNumeric(record.Amount),
		record.CurrencyCode,
		string(record.Type),
		string(record.Status),
		record.Description,
		record.IsFlagged,
		record.FlagReason,
		exchangeRate,
		record.TargetCurrency,
		targetAmount,
		timeToPgTimestamptz(record.CreatedAt),
		timeToPgTimestamptz(record.UpdatedAt),
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		record       domain.Transaction
		txType       string
		status       string
		amount       pgtype.Numeric
		exchangeRate pgtype.Numeric
		targetAmount pgtype.Numeric
		deletedAt    pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&record.ID,
		&record.SenderID,
		&record.RecipientID,
		&amount,
		&record.CurrencyCode,
		&txType,
		&status,
		&record.Description,
		&record.IsFlagged,
		&record.FlagReason,
		&exchangeRate,
		&record.TargetCurrency,
		&targetAmount,
		&record.IsDeleted,
		&deletedAt,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	record.Type = domain.TransactionType(txType)
	record.Status = domain.TransactionStatus(status)
	record.Amount = numericToDecimal(amount)
	if exchangeRate.Valid {
		d := numericToDecimal(exchangeRate)
		record.ExchangeRate = &d
	}
	if targetAmount.Valid {
		d := numericToDecimal(targetAmount)
		record.TargetAmount = &d
	}
	if deletedAt.Valid {
		record.DeletedAt = &deletedAt.Time
	}
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time

	return &record, nil
}
