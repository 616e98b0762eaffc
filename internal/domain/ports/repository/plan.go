package repository

import (
	"context"

	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
)

// PlanRepository is the read-only port for plan lookups. Plans are created
// and edited administratively, never by this service.
type PlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Plan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Plan, error)
	// FindActiveByPrice returns the active plan with the given price,
	// lowest id first when several share one.
	FindActiveByPrice(ctx context.Context, tx Tx, price int64) (*model.Plan, error)
}
