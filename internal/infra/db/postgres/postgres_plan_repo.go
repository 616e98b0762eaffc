package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planColumns = `id, name, price, duration, profile, COALESCE(rate_limit, ''), active, created_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Duration, &p.Profile, &p.RateLimit, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID plan: %w", err)
	}
	return p, nil
}

func (r *PostgresPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE active ORDER BY id;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("ListActive plans: %w", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPlanRepo) FindActiveByPrice(ctx context.Context, tx repository.Tx, price int64) (*model.Plan, error) {
	// Lowest id wins when several active plans share a price.
	q := `SELECT ` + planColumns + ` FROM plans WHERE active AND price = $1 ORDER BY id LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, price)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindActiveByPrice plan: %w", err)
	}
	return p, nil
}
