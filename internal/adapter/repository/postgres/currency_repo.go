package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

const pgErrUniqueViolation = "23505"

// CurrencyRepository implements usecase.CurrencyRepository.
type CurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewCurrencyRepository creates a new CurrencyRepository.
func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}

// Create inserts a catalog entry.
func (r *CurrencyRepository) Create(ctx context.Context, currency *domain.Currency) error {
	query := `
		INSERT INTO currencies (code, name, symbol, exchange_rate, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		currency.Code,
		currency.Name,
		currency.Symbol,
		decimalToNumeric(currency.ExchangeRate),
		currency.IsActive,
		timeToPgTimestamptz(currency.CreatedAt),
		timeToPgTimestamptz(currency.UpdatedAt),
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return domain.ErrCurrencyExists
	}

	return err
}

// GetByCode retrieves a catalog entry by code.
func (r *CurrencyRepository) GetByCode(ctx context.Context, code string) (*domain.Currency, error) {
	query := `
		SELECT code, name, symbol, exchange_rate, is_active, created_at, updated_at
		FROM currencies
		WHERE code = $1
	`

	return scanCurrency(r.pool.QueryRow(ctx, query, code))
}

// List lists catalog entries, active only unless includeInactive.
func (r *CurrencyRepository) List(ctx context.Context, includeInactive bool) ([]*domain.Currency, error) {
	query := `
		SELECT code, name, symbol, exchange_rate, is_active, created_at, updated_at
		FROM currencies
		WHERE is_active = true OR $1
		ORDER BY code
	`

	rows, err := r.pool.Query(ctx, query, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var currencies []*domain.Currency
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, currency)
	}

	return currencies, rows.Err()
}

// UpdateRate adjusts the exchange rate of an entry.
func (r *CurrencyRepository) UpdateRate(ctx context.Context, code string, rate decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE currencies
		SET exchange_rate = $2, updated_at = $3
		WHERE code = $1
	`

	tag, err := r.pool.Exec(ctx, query, code, decimalToNumeric(rate), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCurrencyNotFound
	}

	return nil
}

// SetActive toggles the activity flag.
func (r *CurrencyRepository) SetActive(ctx context.Context, code string, active bool, updatedAt time.Time) error {
	query := `
		UPDATE currencies
		SET is_active = $2, updated_at = $3
		WHERE code = $1
	`

	tag, err := r.pool.Exec(ctx, query, code, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCurrencyNotFound
	}

	return nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var (
		currency  domain.Currency
		rate      pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&currency.Code,
		&currency.Name,
		&currency.Symbol,
		&rate,
		&currency.IsActive,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCurrencyNotFound
	}
	if err != nil {
		return nil, err
	}

	currency.ExchangeRate = numericToDecimal(rate)
	currency.CreatedAt = createdAt.Time
	currency.UpdatedAt = updatedAt.Time

	return &currency, nil
}
