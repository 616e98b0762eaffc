package repository

import (
	"context"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
)

type ProvisionJobRepository interface {
	Save(ctx context.Context, tx Tx, j *model.ProvisionJob) error
	Update(ctx context.Context, tx Tx, j *model.ProvisionJob) error
	// ListDue returns pending jobs whose next attempt time has passed,
	// oldest first.
	ListDue(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.ProvisionJob, error)
}
