package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
	"github.com/owagajadoh/hotspot-billing/internal/infra/logging"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase owns the entitlement window and its projection onto the
// access controller.
type AccessUseCase interface {
	// Grant extends (or starts) the phone's access window by the plan's
	// duration and schedules controller provisioning. The window change
	// and the provisioning job commit atomically; the controller push
	// itself is attempted inline and retried later on failure.
	Grant(ctx context.Context, phone string, plan *model.Plan) (*model.Subscriber, error)
	// Status returns the entitlement record for the phone.
	Status(ctx context.Context, phone string) (*model.Subscriber, error)
	// Attempt runs one provisioning attempt for a queued job and records
	// the outcome.
	Attempt(ctx context.Context, job *model.ProvisionJob) error
}

type accessUC struct {
	tm          repository.TransactionManager
	subs        repository.SubscriberRepository
	jobs        repository.ProvisionJobRepository
	controller  adapter.NetworkController
	maxAttempts int
	log         *zerolog.Logger
	now         func() time.Time
}

func NewAccessUseCase(
	tm repository.TransactionManager,
	subs repository.SubscriberRepository,
	jobs repository.ProvisionJobRepository,
	controller adapter.NetworkController,
	maxAttempts int,
	logger *zerolog.Logger,
) *accessUC {
	l := logger.With().Str("component", "AccessUC").Logger()
	return &accessUC{
		tm:          tm,
		subs:        subs,
		jobs:        jobs,
		controller:  controller,
		maxAttempts: maxAttempts,
		log:         &l,
		now:         time.Now,
	}
}

func (u *accessUC) Grant(ctx context.Context, phone string, plan *model.Plan) (*model.Subscriber, error) {
	d, err := plan.AccessDuration()
	if err != nil {
		u.log.Error().Int64("plan_id", plan.ID).Str("duration", plan.Duration).Msg("plan duration is not normalizable")
		return nil, err
	}

	now := u.now()
	var (
		sub *model.Subscriber
		job *model.ProvisionJob
	)
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.subs.FindByPhone(ctx, tx, phone)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing == nil {
			existing = &model.Subscriber{
				Phone:     phone,
				Password:  phone,
				CreatedAt: now,
			}
		}
		existing.Extend(now, d)
		existing.Profile = plan.Profile
		existing.PlanID = &plan.ID
		if err := u.subs.Upsert(ctx, tx, existing); err != nil {
			return err
		}

		job = model.NewProvisionJob(phone, plan.Profile, now)
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		sub = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("phone", logging.Redact(phone)).
		Int64("plan_id", plan.ID).
		Time("active_until", sub.ActiveUntil).
		Msg("access window extended")

	// Inline push keeps the common case instant; the committed job covers
	// a dead controller.
	if err := u.Attempt(ctx, job); err != nil {
		u.log.Warn().Err(err).Str("phone", logging.Redact(phone)).Msg("inline provisioning failed, queued for retry")
	}
	return sub, nil
}

func (u *accessUC) Status(ctx context.Context, phone string) (*model.Subscriber, error) {
	return u.subs.FindByPhone(ctx, nil, phone)
}

func (u *accessUC) Attempt(ctx context.Context, job *model.ProvisionJob) error {
	provErr := u.controller.EnsureSubscriber(ctx, job.Phone, job.Profile)
	metrics.IncProvisionAttempt(provErr)

	job.MarkAttempt(u.now(), provErr, u.maxAttempts)
	if err := u.jobs.Update(ctx, nil, job); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to record provisioning attempt")
		return err
	}
	if job.Status == model.ProvisionJobStatusFailed {
		u.log.Error().Str("job_id", job.ID).Str("phone", logging.Redact(job.Phone)).Int("attempts", job.Attempts).Msg("provisioning abandoned after max attempts")
	}
	return provErr
}
