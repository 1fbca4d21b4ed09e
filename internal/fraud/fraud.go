// Package fraud implements the risk screening pipeline that every money
// movement passes through before it is allowed to settle. The pipeline is
// pure composition over independent checks: it reads history, mutates
// nothing, and is deterministic for a fixed history.
package fraud

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// Verdict is the outcome of a fraud evaluation.
type Verdict struct {
	Flagged bool
	Reason  string
}

// Clear is the verdict for an unremarkable movement.
var Clear = Verdict{}

// History gives checks read access to an actor's recorded transactions.
// Implementations must exclude soft-deleted records.
type History interface {
	CountByActorSince(ctx context.Context, actorID string, since time.Time) (int, error)
	ListAmountsByActorTypeSince(ctx context.Context, actorID string, txType domain.TransactionType, since time.Time) ([]decimal.Decimal, error)
}

// Check is a single independent risk heuristic.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (Verdict, error)
}

// Pipeline runs an ordered list of checks and short-circuits on the first
// flagged verdict. Order matters only for which reason is reported when
// several checks would flag.
type Pipeline struct {
	checks []Check
}

// NewPipeline builds a pipeline from the given checks, evaluated in order.
func NewPipeline(checks ...Check) *Pipeline {
	return &Pipeline{checks: checks}
}

// Config holds the pipeline thresholds.
type Config struct {
	LargeAmountThreshold decimal.Decimal
	VelocityLimit        int
	VelocityWindow       time.Duration
	DeviationWindow      time.Duration
	DeviationMargin      decimal.Decimal
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		LargeAmountThreshold: decimal.NewFromInt(10000),
		VelocityLimit:        5,
		VelocityWindow:       5 * time.Minute,
		DeviationWindow:      24 * time.Hour,
		DeviationMargin:      decimal.NewFromFloat(0.5),
	}
}

// NewDefaultPipeline wires the standard three checks in their canonical
// order: large amount first, velocity second, deviation last.
func NewDefaultPipeline(history History, cfg Config) *Pipeline {
	return NewPipeline(
		&LargeAmountCheck{Threshold: cfg.LargeAmountThreshold},
		&VelocityCheck{History: history, Limit: cfg.VelocityLimit, Window: cfg.VelocityWindow},
		&DeviationCheck{History: history, Window: cfg.DeviationWindow, Margin: cfg.DeviationMargin},
	)
}

// Evaluate runs the checks in order and returns the first flagged verdict,
// or Clear when no check flags.
func (p *Pipeline) Evaluate(ctx context.Context, actorID string, amount decimal.Decimal, txType domain.TransactionType, now time.Time) (Verdict, error) {
	for _, check := range p.checks {
		verdict, err := check.Evaluate(ctx, actorID, amount, txType, now)
		if err != nil {
			return Clear, err
		}

		if verdict.Flagged {
			return verdict, nil
		}
	}

	return Clear, nil
}
