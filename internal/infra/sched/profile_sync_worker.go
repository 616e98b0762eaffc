package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
	"github.com/owagajadoh/hotspot-billing/internal/usecase"
)

// ProfileSyncWorker periodically mirrors the active plan catalog onto the
// access controller so every plan's hotspot profile exists before the first
// subscriber lands on it.
type ProfileSyncWorker struct {
	interval   time.Duration
	plans      usecase.PlanUseCase
	controller adapter.NetworkController
	log        *zerolog.Logger
}

func NewProfileSyncWorker(interval time.Duration, plans usecase.PlanUseCase, controller adapter.NetworkController, logger *zerolog.Logger) *ProfileSyncWorker {
	compLog := logger.With().Str("component", "ProfileSyncWorker").Logger()
	return &ProfileSyncWorker{
		interval:   interval,
		plans:      plans,
		controller: controller,
		log:        &compLog,
	}
}

func (w *ProfileSyncWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting profile sync worker")
	// Run once on startup, then on every tick
	w.sync(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping profile sync worker")
			return ctx.Err()
		case <-ticker.C:
			w.sync(ctx)
		}
	}
}

func (w *ProfileSyncWorker) sync(ctx context.Context) {
	plans, err := w.plans.ListActive(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("profile sync could not load plans")
		return
	}

	synced := 0
	for _, p := range plans {
		if p.Profile == "" {
			continue
		}
		err := w.controller.EnsureProfile(ctx, p.Profile, p.RateLimit, p.SessionTimeout())
		if errors.Is(err, domain.ErrControllerUnavailable) {
			// No point walking the rest of the catalog against a dead
			// controller; the next tick retries everything.
			w.log.Warn().Err(err).Msg("controller unavailable, sync cycle aborted")
			return
		}
		if err != nil {
			w.log.Error().Err(err).Str("profile", p.Profile).Int64("plan_id", p.ID).Msg("profile sync failed for plan")
			continue
		}
		synced++
	}
	w.log.Debug().Int("plans", len(plans)).Int("synced", synced).Msg("profile sync cycle complete")
}
