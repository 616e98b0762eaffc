package repository

import (
	"context"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
)

type SubscriberRepository interface {
	// FindByPhone locks the row (FOR UPDATE) when called inside a
	// transaction so concurrent grants for one phone serialize.
	FindByPhone(ctx context.Context, tx Tx, phone string) (*model.Subscriber, error)
	Upsert(ctx context.Context, tx Tx, s *model.Subscriber) error
	Count(ctx context.Context, tx Tx) (int, error)
	CountActive(ctx context.Context, tx Tx, at time.Time) (int, error)
}
