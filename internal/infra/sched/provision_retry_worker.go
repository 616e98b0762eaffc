package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
	"github.com/owagajadoh/hotspot-billing/internal/usecase"
)

const retryBatchSize = 50

// ProvisionRetryWorker drains the provisioning outbox: jobs whose inline
// controller push failed are retried here until they succeed or exhaust
// their attempts.
type ProvisionRetryWorker struct {
	interval time.Duration
	jobs     repository.ProvisionJobRepository
	access   usecase.AccessUseCase
	log      *zerolog.Logger
}

func NewProvisionRetryWorker(interval time.Duration, jobs repository.ProvisionJobRepository, access usecase.AccessUseCase, logger *zerolog.Logger) *ProvisionRetryWorker {
	compLog := logger.With().Str("component", "ProvisionRetryWorker").Logger()
	return &ProvisionRetryWorker{
		interval: interval,
		jobs:     jobs,
		access:   access,
		log:      &compLog,
	}
}

func (w *ProvisionRetryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting provision retry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping provision retry worker")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *ProvisionRetryWorker) drain(ctx context.Context) {
	due, err := w.jobs.ListDue(ctx, nil, time.Now(), retryBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("retry worker could not list due jobs")
		return
	}
	if len(due) == 0 {
		return
	}

	retried, ok := 0, 0
	for _, job := range due {
		if ctx.Err() != nil {
			return
		}
		retried++
		if err := w.access.Attempt(ctx, job); err == nil {
			ok++
		}
	}
	w.log.Info().Int("retried", retried).Int("succeeded", ok).Msg("provision retry cycle complete")
}
