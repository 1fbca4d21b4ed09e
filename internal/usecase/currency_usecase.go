package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

const currencyCacheTTL = 5 * time.Minute

// CurrencyUseCase handles the currency catalog: creation, rate updates and
// lookups. Lookups go through a read-through cache because every movement
// resolves at least one catalog entry.
type CurrencyUseCase struct {
	currencyRepo CurrencyRepository
	cache        Cache // optional; nil disables caching
}

// NewCurrencyUseCase creates a new CurrencyUseCase. cache may be nil.
func NewCurrencyUseCase(currencyRepo CurrencyRepository, cache Cache) *CurrencyUseCase {
	return &CurrencyUseCase{
		currencyRepo: currencyRepo,
		cache:        cache,
	}
}

// CreateCurrencyInput represents input for creating a catalog entry.
type CreateCurrencyInput struct {
	Code         string
	Name         string
	Symbol       string
	ExchangeRate decimal.Decimal
}

// CreateCurrency adds a currency to the catalog, active by default.
func (uc *CurrencyUseCase) CreateCurrency(ctx context.Context, input CreateCurrencyInput) (*domain.Currency, error) {
	now := time.Now().UTC()

	currency := &domain.Currency{
		Code:         input.Code,
		Name:         input.Name,
		Symbol:       input.Symbol,
		ExchangeRate: input.ExchangeRate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := currency.Validate(); err != nil {
		return nil, err
	}

	if err := uc.currencyRepo.Create(ctx, currency); err != nil {
		return nil, err
	}

	return currency, nil
}

// GetCurrency resolves a catalog entry by code, cache first.
func (uc *CurrencyUseCase) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	if err := domain.ValidateCurrencyCode(code); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, cacheKey(code)); err == nil && data != nil {
			var currency domain.Currency
			if err := json.Unmarshal(data, &currency); err == nil {
				return &currency, nil
			}
		}
	}

	currency, err := uc.currencyRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(currency); err == nil {
			_ = uc.cache.Set(ctx, cacheKey(code), data, currencyCacheTTL)
		}
	}

	return currency, nil
}

// ListCurrencies lists active catalog entries; includeInactive widens the
// result to deactivated ones.
func (uc *CurrencyUseCase) ListCurrencies(ctx context.Context, includeInactive bool) ([]*domain.Currency, error) {
	return uc.currencyRepo.List(ctx, includeInactive)
}

// UpdateExchangeRate adjusts the rate of an existing entry. The cached copy
// is invalidated so movements see the new rate immediately.
func (uc *CurrencyUseCase) UpdateExchangeRate(ctx context.Context, code string, rate decimal.Decimal) error {
	if err := domain.ValidateCurrencyCode(code); err != nil {
		return err
	}

	if rate.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidExchangeRate
	}

	if _, err := uc.currencyRepo.GetByCode(ctx, code); err != nil {
		return err
	}

	if err := uc.currencyRepo.UpdateRate(ctx, code, rate, time.Now().UTC()); err != nil {
		return err
	}

	uc.invalidate(ctx, code)

	return nil
}

// SetCurrencyActive toggles the activity flag of a catalog entry.
func (uc *CurrencyUseCase) SetCurrencyActive(ctx context.Context, code string, active bool) error {
	if err := domain.ValidateCurrencyCode(code); err != nil {
		return err
	}

	if _, err := uc.currencyRepo.GetByCode(ctx, code); err != nil {
		return err
	}

	if err := uc.currencyRepo.SetActive(ctx, code, active, time.Now().UTC()); err != nil {
		return err
	}

	uc.invalidate(ctx, code)

	return nil
}

func (uc *CurrencyUseCase) invalidate(ctx context.Context, code string) {
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, cacheKey(code))
	}
}

func cacheKey(code string) string {
	return "currency:" + code
}
