package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

var _ repository.ProvisionJobRepository = (*provisionJobRepo)(nil)

type provisionJobRepo struct{ pool *pgxpool.Pool }

func NewProvisionJobRepo(pool *pgxpool.Pool) *provisionJobRepo {
	return &provisionJobRepo{pool: pool}
}

func (r *provisionJobRepo) Save(ctx context.Context, tx repository.Tx, j *model.ProvisionJob) error {
	const q = `
INSERT INTO provision_jobs (id, phone, profile, status, attempts, last_error, next_attempt_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		j.ID, j.Phone, j.Profile, j.Status, j.Attempts, j.LastError, j.NextAttemptAt, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *provisionJobRepo) Update(ctx context.Context, tx repository.Tx, j *model.ProvisionJob) error {
	const q = `
UPDATE provision_jobs
   SET status = $2, attempts = $3, last_error = NULLIF($4,''), next_attempt_at = $5, updated_at = $6
 WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q,
		j.ID, j.Status, j.Attempts, j.LastError, j.NextAttemptAt, j.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *provisionJobRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.ProvisionJob, error) {
	const q = `
SELECT id, phone, profile, status, attempts, COALESCE(last_error, ''), next_attempt_at, created_at, updated_at
  FROM provision_jobs
 WHERE status = 'pending' AND next_attempt_at <= $1
 ORDER BY next_attempt_at
 LIMIT $2;`
	rows, err := pickRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ProvisionJob
	for rows.Next() {
		j := &model.ProvisionJob{}
		if err := rows.Scan(&j.ID, &j.Phone, &j.Profile, &j.Status, &j.Attempts, &j.LastError, &j.NextAttemptAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
