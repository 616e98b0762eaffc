package usecase

import (
	"context"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase exposes the purchasable catalog. Plans are managed out of
// band, so this is a read-only surface.
type PlanUseCase interface {
	ListActive(ctx context.Context) ([]*model.Plan, error)
	Get(ctx context.Context, id int64) (*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) ListActive(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.ListActive(ctx, nil)
}

// Get returns the plan only when it is still purchasable.
func (u *planUC) Get(ctx context.Context, id int64) (*model.Plan, error) {
	p, err := u.plans.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
