package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

var _ repository.SubscriberRepository = (*subscriberRepo)(nil)

type subscriberRepo struct{ pool *pgxpool.Pool }

func NewSubscriberRepo(pool *pgxpool.Pool) *subscriberRepo {
	return &subscriberRepo{pool: pool}
}

func (r *subscriberRepo) FindByPhone(ctx context.Context, tx repository.Tx, phone string) (*model.Subscriber, error) {
	q := `SELECT phone, password, profile, plan_id, active_until, created_at, updated_at
FROM users WHERE phone = $1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, phone)
	if err != nil {
		return nil, err
	}
	s := &model.Subscriber{}
	if err := row.Scan(&s.Phone, &s.Password, &s.Profile, &s.PlanID, &s.ActiveUntil, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriberRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscriber) error {
	const q = `
INSERT INTO users (phone, password, profile, plan_id, active_until, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (phone) DO UPDATE SET
  password     = EXCLUDED.password,
  profile      = EXCLUDED.profile,
  plan_id      = EXCLUDED.plan_id,
  active_until = GREATEST(users.active_until, EXCLUDED.active_until),
  updated_at   = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.Phone, s.Password, s.Profile, s.PlanID, s.ActiveUntil, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriberRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(1) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *subscriberRepo) CountActive(ctx context.Context, tx repository.Tx, at time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(1) FROM users WHERE active_until > $1;`, at)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
