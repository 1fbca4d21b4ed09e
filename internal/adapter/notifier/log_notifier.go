// Package notifier delivers fraud alerts to account contacts.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/usecase"
)

// LogNotifier implements usecase.AlertNotifier by writing the alert to the
// structured log. It stands in where no mail transport is configured; the
// log line carries everything a delivery channel would.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify writes the alert at warn level.
func (n *LogNotifier) Notify(ctx context.Context, contact string, alert usecase.FraudAlert) error {
	n.logger.Warn().
		Str("contact", contact).
		Str("transaction_id", alert.TransactionID).
		Str("amount", alert.Amount.String()).
		Str("currency", alert.CurrencyCode).
		Str("type", string(alert.Type)).
		Str("reason", alert.Reason).
		Time("created_at", alert.CreatedAt).
		Msg("fraud alert")

	return nil
}
