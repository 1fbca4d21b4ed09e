package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestCurrencyUseCase_CreateCurrency(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.CreateCurrencyInput
		expectError bool
		errorType   error
	}{
		{
			name: "valid currency",
			input: usecase.CreateCurrencyInput{
				Code:         "USD",
				Name:         "US Dollar",
				Symbol:       "$",
				ExchangeRate: decimal.NewFromInt(1),
			},
		},
		{
			name: "lowercase code",
			input: usecase.CreateCurrencyInput{
				Code:         "usd",
				Name:         "US Dollar",
				ExchangeRate: decimal.NewFromInt(1),
			},
			expectError: true,
			errorType:   domain.ErrInvalidCurrencyCode,
		},
		{
			name: "non-positive rate",
			input: usecase.CreateCurrencyInput{
				Code:         "USD",
				Name:         "US Dollar",
				ExchangeRate: decimal.Zero,
			},
			expectError: true,
			errorType:   domain.ErrInvalidExchangeRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewCurrencyUseCase(mocks.NewMockCurrencyRepository(), nil)

			currency, err := uc.CreateCurrency(context.Background(), tt.input)
			if tt.expectError {
				if !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !currency.IsActive {
				t.Error("expected new currency to be active")
			}
		})
	}
}

func TestCurrencyUseCase_CreateDuplicate(t *testing.T) {
	repo := mocks.NewMockCurrencyRepository()
	uc := usecase.NewCurrencyUseCase(repo, nil)

	input := usecase.CreateCurrencyInput{
		Code:         "USD",
		Name:         "US Dollar",
		ExchangeRate: decimal.NewFromInt(1),
	}
	if _, err := uc.CreateCurrency(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uc.CreateCurrency(context.Background(), input); !errors.Is(err, domain.ErrCurrencyExists) {
		t.Errorf("expected ErrCurrencyExists, got %v", err)
	}
}

func TestCurrencyUseCase_GetCurrency_CacheFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	repo := mocks.NewMockCurrencyRepository()
	repo.Seed(&domain.Currency{
		Code:         "EUR",
		Name:         "Euro",
		ExchangeRate: decimal.NewFromFloat(0.9),
		IsActive:     true,
	})

	uc := usecase.NewCurrencyUseCase(repo, cache)

	// Miss: read store, populate cache.
	cache.EXPECT().Get(gomock.Any(), "currency:EUR").Return(nil, nil)
	cache.EXPECT().Set(gomock.Any(), "currency:EUR", gomock.Any(), gomock.Any()).Return(nil)

	currency, err := uc.GetCurrency(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if currency.Code != "EUR" {
		t.Errorf("expected EUR, got %s", currency.Code)
	}

	// Hit: served from cache, store untouched.
	cached, _ := json.Marshal(currency)
	cache.EXPECT().Get(gomock.Any(), "currency:EUR").Return(cached, nil)
	repo.GetByCodeFunc = func(ctx context.Context, code string) (*domain.Currency, error) {
		t.Fatal("store must not be hit on a cache hit")
		return nil, nil
	}

	currency, err = uc.GetCurrency(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !currency.ExchangeRate.Equal(decimal.NewFromFloat(0.9)) {
		t.Errorf("expected rate 0.9, got %s", currency.ExchangeRate)
	}
}

func TestCurrencyUseCase_UpdateExchangeRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	repo := mocks.NewMockCurrencyRepository()
	repo.Seed(&domain.Currency{
		Code:         "EUR",
		Name:         "Euro",
		ExchangeRate: decimal.NewFromFloat(0.9),
		IsActive:     true,
	})

	uc := usecase.NewCurrencyUseCase(repo, cache)

	// Rate change invalidates the cached entry.
	cache.EXPECT().Delete(gomock.Any(), "currency:EUR").Return(nil)

	if err := uc.UpdateExchangeRate(context.Background(), "EUR", decimal.NewFromFloat(0.95)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := repo.GetByCode(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.ExchangeRate.Equal(decimal.NewFromFloat(0.95)) {
		t.Errorf("expected rate 0.95, got %s", updated.ExchangeRate)
	}

	t.Run("rejects non-positive rate", func(t *testing.T) {
		err := uc.UpdateExchangeRate(context.Background(), "EUR", decimal.Zero)
		if !errors.Is(err, domain.ErrInvalidExchangeRate) {
			t.Errorf("expected ErrInvalidExchangeRate, got %v", err)
		}
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		err := uc.UpdateExchangeRate(context.Background(), "GBP", decimal.NewFromInt(1))
		if !errors.Is(err, domain.ErrCurrencyNotFound) {
			t.Errorf("expected ErrCurrencyNotFound, got %v", err)
		}
	})
}

func TestCurrencyUseCase_SetCurrencyActive(t *testing.T) {
	repo := mocks.NewMockCurrencyRepository()
	repo.Seed(&domain.Currency{
		Code:         "EUR",
		Name:         "Euro",
		ExchangeRate: decimal.NewFromFloat(0.9),
		IsActive:     true,
	})
	repo.Seed(&domain.Currency{
		Code:         "USD",
		Name:         "US Dollar",
		ExchangeRate: decimal.NewFromInt(1),
		IsActive:     true,
	})

	uc := usecase.NewCurrencyUseCase(repo, nil)

	if err := uc.SetCurrencyActive(context.Background(), "EUR", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := uc.ListCurrencies(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 1 || active[0].Code != "USD" {
		t.Errorf("expected only USD active, got %d entries", len(active))
	}

	all, err := uc.ListCurrencies(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries including inactive, got %d", len(all))
	}
}
