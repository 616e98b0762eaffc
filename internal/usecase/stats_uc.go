package usecase

import (
	"context"
	"time"

	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the operator dashboard snapshot.
type Stats struct {
	Subscribers       int            `json:"subscribers"`
	ActiveSubscribers int            `json:"activeSubscribers"`
	Transactions      map[string]int `json:"transactions"`
	RevenueDay        int64          `json:"revenueDay"`
	RevenueWeek       int64          `json:"revenueWeek"`
	RevenueMonth      int64          `json:"revenueMonth"`
}

type StatsUseCase interface {
	Collect(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	subs repository.SubscriberRepository
	txns repository.TransactionRepository
	now  func() time.Time
}

func NewStatsUseCase(subs repository.SubscriberRepository, txns repository.TransactionRepository) *statsUC {
	return &statsUC{subs: subs, txns: txns, now: time.Now}
}

func (u *statsUC) Collect(ctx context.Context) (*Stats, error) {
	now := u.now()
	s := &Stats{}

	var err error
	if s.Subscribers, err = u.subs.Count(ctx, nil); err != nil {
		return nil, err
	}
	if s.ActiveSubscribers, err = u.subs.CountActive(ctx, nil, now); err != nil {
		return nil, err
	}
	if s.Transactions, err = u.txns.CountByStatus(ctx, nil); err != nil {
		return nil, err
	}
	if s.RevenueDay, err = u.txns.SumSuccessfulSince(ctx, nil, now.AddDate(0, 0, -1)); err != nil {
		return nil, err
	}
	if s.RevenueWeek, err = u.txns.SumSuccessfulSince(ctx, nil, now.AddDate(0, 0, -7)); err != nil {
		return nil, err
	}
	if s.RevenueMonth, err = u.txns.SumSuccessfulSince(ctx, nil, now.AddDate(0, -1, 0)); err != nil {
		return nil, err
	}
	return s, nil
}
