package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCurrencyCode(t *testing.T) {
	valid := []string{"USD", "EUR", "JPY", "BRL", "USDT", "DOGEC"}
	for _, code := range valid {
		if err := ValidateCurrencyCode(code); err != nil {
			t.Errorf("ValidateCurrencyCode(%q) = %v, want nil", code, err)
		}
	}

	invalid := []string{"usd", "US", "USDTXX", "", "U1D", "usd "}
	for _, code := range invalid {
		if err := ValidateCurrencyCode(code); err == nil {
			t.Errorf("ValidateCurrencyCode(%q) = nil, want error", code)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromFloat(10.50)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateAmount(decimal.Zero); err == nil {
		t.Error("expected error for zero amount")
	}

	if err := ValidateAmount(decimal.NewFromInt(-1)); err == nil {
		t.Error("expected error for negative amount")
	}

	huge, _ := decimal.NewFromString("1000000000001")
	if err := ValidateAmount(huge); err == nil {
		t.Error("expected error for amount above maximum")
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alerts@example.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	for _, email := range []string{"", "nope", "@example.com", "a@b"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Errorf("expected defaults (50, 0), got (%d, %d)", limit, offset)
	}

	limit, offset = ValidatePagination(5000, 10)
	if limit != 1000 || offset != 10 {
		t.Errorf("expected clamp (1000, 10), got (%d, %d)", limit, offset)
	}
}
