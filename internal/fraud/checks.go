package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// LargeAmountCheck flags any movement above a fixed absolute threshold.
// Stateless.
type LargeAmountCheck struct {
	Threshold decimal.Decimal
}

func (c *LargeAmountCheck) Name() string { return "large_amount" }

func (c *LargeAmountCheck) Evaluate(_ context.Context, _ string, amount decimal.Decimal, _ domain.TransactionType, _ time.Time) (Verdict, error) {
	if amount.GreaterThan(c.Threshold) {
		return Verdict{
			Flagged: true,
			Reason:  fmt.Sprintf("transaction amount (%s) exceeds large transaction threshold", amount),
		}, nil
	}

	return Clear, nil
}

// VelocityCheck flags an actor with at least Limit transactions recorded
// within the trailing Window.
type VelocityCheck struct {
	History History
	Limit   int
	Window  time.Duration
}

func (c *VelocityCheck) Name() string { return "velocity" }

func (c *VelocityCheck) Evaluate(ctx context.Context, actorID string, _ decimal.Decimal, _ domain.TransactionType, now time.Time) (Verdict, error) {
	count, err := c.History.CountByActorSince(ctx, actorID, now.Add(-c.Window))
	if err != nil {
		return Clear, err
	}

	if count >= c.Limit {
		return Verdict{
			Flagged: true,
			Reason:  fmt.Sprintf("multiple transactions (%d) detected within short time window", count),
		}, nil
	}

	return Clear, nil
}

// DeviationCheck flags a movement that exceeds the actor's mean amount for
// the same type over the trailing Window by more than the relative Margin.
// With no prior history of that type the check never flags.
type DeviationCheck struct {
	History History
	Window  time.Duration
	Margin  decimal.Decimal
}

func (c *DeviationCheck) Name() string { return "deviation" }

func (c *DeviationCheck) Evaluate(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (Verdict, error) {
	amounts, err := c.History.ListAmountsByActorTypeSince(ctx, actorID, txType, now.Add(-c.Window))
	if err != nil {
		return Clear, err
	}

	if len(amounts) == 0 {
		return Clear, nil
	}

	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(amounts))))

	limit := mean.Mul(decimal.NewFromInt(1).Add(c.Margin))
	if amount.GreaterThan(limit) {
		return Verdict{
			Flagged: true,
			Reason:  fmt.Sprintf("transaction amount (%s) is significantly higher than average (%s)", amount, mean),
		}, nil
	}

	return Clear, nil
}
