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

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (phone, amount, plan_id, merchant_request_id, checkout_request_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q,
		t.Phone, t.Amount, t.PlanID, t.MerchantRequestID, t.CheckoutRequestID, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&t.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByCheckoutID(ctx context.Context, tx repository.Tx, checkoutID string) (*model.Transaction, error) {
	q := `SELECT id, phone, amount, plan_id, merchant_request_id, checkout_request_id, status, receipt, created_at, updated_at
FROM transactions WHERE checkout_request_id = $1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, checkoutID)
	if err != nil {
		return nil, err
	}
	t := &model.Transaction{}
	if err := row.Scan(&t.ID, &t.Phone, &t.Amount, &t.PlanID, &t.MerchantRequestID, &t.CheckoutRequestID, &t.Status, &t.Receipt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

// MarkStatus only ever moves a row out of pending. A duplicate callback for
// an already-terminal row affects zero rows and reports false.
func (r *transactionRepo) MarkStatus(ctx context.Context, tx repository.Tx, checkoutID string, status model.TransactionStatus, receipt *string) (bool, error) {
	const q = `
UPDATE transactions
   SET status = $2, receipt = COALESCE($3, receipt), updated_at = NOW()
 WHERE checkout_request_id = $1 AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, checkoutID, status, receipt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *transactionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	const q = `SELECT status, COUNT(1) FROM transactions GROUP BY status;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *transactionRepo) SumSuccessfulSince(ctx context.Context, tx repository.Tx, since time.Time) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM transactions WHERE status = 'success' AND updated_at >= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, since)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
