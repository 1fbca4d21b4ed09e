package domain

import "github.com/shopspring/decimal"

// Convert turns an amount in the source currency into the target currency
// using catalog rates relative to the base unit:
//
//	target = amount * targetRate / sourceRate
//
// The division happens last so no precision is lost on the intermediate
// cross rate; for terminating divisions the result is exact.
// Both rates must be strictly positive. Whether a currency is known or
// active is the catalog's concern, not the calculator's.
func Convert(amount, sourceRate, targetRate decimal.Decimal) (decimal.Decimal, error) {
	if sourceRate.LessThanOrEqual(decimal.Zero) || targetRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidExchangeRate
	}

	return amount.Mul(targetRate).Div(sourceRate), nil
}

// CrossRate returns the effective rate applied by Convert for the pair.
func CrossRate(sourceRate, targetRate decimal.Decimal) (decimal.Decimal, error) {
	if sourceRate.LessThanOrEqual(decimal.Zero) || targetRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidExchangeRate
	}

	return targetRate.Div(sourceRate), nil
}
