package worker

import (
	"context"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/metrics"
	"studiobook/internal/timeslot"

	"github.com/rs/zerolog"
)

// SweepWorker periodically transitions date-passed bookings to completed.
// It owns sweeping alone; read paths never trigger it. Failures are
// logged and retried, never surfaced to request handling.
type SweepWorker struct {
	repo        domain.Repository
	clock       domain.Clock
	interval    time.Duration
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
}

func NewSweepWorker(repo domain.Repository, clock domain.Clock, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *SweepWorker {
	if clock == nil {
		clock = domain.SystemClock()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}

	return &SweepWorker{
		repo:        repo,
		clock:       clock,
		interval:    interval,
		retryPolicy: retry,
		logger:      logger,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (w *SweepWorker) Run(ctx context.Context) {
	w.sweepWithRetry(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sweep worker stopped")
			return
		case <-ticker.C:
			w.sweepWithRetry(ctx)
		}
	}
}

// SweepOnce closes every booking dated strictly before today. Repeated
// runs over already-completed records are no-ops.
func (w *SweepWorker) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := timeslot.DateOnly(w.clock.Now())
	n, err := w.repo.CompletePastBookings(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	metrics.AddSweepCompleted(n)
	if n > 0 {
		w.logger.Info().Int64("completed", n).Str("cutoff", cutoff.Format("2006-01-02")).Msg("sweep pass finished")
	}
	return n, nil
}

func (w *SweepWorker) sweepWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		_, err := w.SweepOnce(ctx)
		if err == nil {
			return
		}

		w.logger.Error().Err(err).Int("attempt", attempt).Msg("sweep pass failed")
		if attempt == w.retryPolicy.MaxRetries {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}
}
