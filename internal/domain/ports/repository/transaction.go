package repository

import (
	"context"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
)

type TransactionRepository interface {
	// Save inserts the transaction and fills in its generated id.
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByCheckoutID(ctx context.Context, tx Tx, checkoutID string) (*model.Transaction, error)
	// MarkStatus transitions a pending transaction to a terminal status.
	// It returns false when the row was already terminal (duplicate
	// callback) and never rewrites a terminal status.
	MarkStatus(ctx context.Context, tx Tx, checkoutID string, status model.TransactionStatus, receipt *string) (bool, error)
	CountByStatus(ctx context.Context, tx Tx) (map[string]int, error)
	SumSuccessfulSince(ctx context.Context, tx Tx, since time.Time) (int64, error)
}
