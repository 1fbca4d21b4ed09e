// Package fraudscan runs the periodic fraud re-scan over recent pending
// transactions.
package fraudscan

import (
	"context"
	"log/slog"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

// Scanner re-evaluates pending transactions recorded since a cutoff.
type Scanner interface {
	Rescan(ctx context.Context, since time.Time) (*usecase.ScanReport, error)
}

// Worker drives a Scanner on a fixed interval.
type Worker struct {
	scanner  Scanner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	lookback time.Duration
}

// Config for Worker.
type Config struct {
	Scanner  Scanner
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // optional
	Interval time.Duration    // time between passes
	Lookback time.Duration    // how far back each pass reaches
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 2 * cfg.Interval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Worker{
		scanner:  cfg.Scanner,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		interval: cfg.Interval,
		lookback: cfg.Lookback,
	}
}

// Start begins the re-scan worker.
// It runs continuously until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("fraud scan worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("lookback", w.lookback))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run a pass immediately on start
	w.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("fraud scan worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

// runPass executes one re-scan pass. A failed pass is logged and retried on
// the next tick; the lookback overlap means nothing is missed.
func (w *Worker) runPass(ctx context.Context) {
	start := time.Now()
	since := start.UTC().Add(-w.lookback)

	report, err := w.scanner.Rescan(ctx, since)
	if err != nil {
		w.logger.Error("fraud re-scan pass failed", slog.String("error", err.Error()))
		if w.metrics != nil {
			w.metrics.ScanErrors.Inc()
		}
		return
	}

	if w.metrics != nil {
		w.metrics.ScanRuns.Inc()
		w.metrics.ScanDuration.Observe(time.Since(start).Seconds())
		w.metrics.ScanRecords.Add(float64(report.Scanned))
		w.metrics.ScanFlagged.Add(float64(report.Flagged))
		w.metrics.ScanNotified.Add(float64(report.Notified))
	}

	w.logger.Info("fraud re-scan pass complete",
		slog.Int("scanned", report.Scanned),
		slog.Int("flagged", report.Flagged),
		slog.Int("notified", report.Notified),
		slog.Duration("took", time.Since(start)))
}
