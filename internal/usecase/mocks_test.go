//go:build !integration

package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
)

// mockTxManager runs the closure directly; the in-memory repos have no
// transactional semantics to coordinate.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[int64]*model.Plan
}

func newMockPlanRepo(plans ...*model.Plan) *mockPlanRepo {
	m := &mockPlanRepo{plans: make(map[int64]*model.Plan)}
	for _, p := range plans {
		m.plans[p.ID] = p
	}
	return m
}

func (m *mockPlanRepo) FindByID(_ context.Context, _ repository.Tx, id int64) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlanRepo) ListActive(_ context.Context, _ repository.Tx) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.plans {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPlanRepo) FindActiveByPrice(_ context.Context, _ repository.Tx, price int64) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Plan
	for _, p := range m.plans {
		if !p.Active || p.Price != price {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

type mockTransactionRepo struct {
	mu     sync.Mutex
	nextID int64
	byCkt  map[string]*model.Transaction
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{byCkt: make(map[string]*model.Transaction)}
}

func (m *mockTransactionRepo) Save(_ context.Context, _ repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.byCkt[t.CheckoutRequestID] = &cp
	return nil
}

func (m *mockTransactionRepo) FindByCheckoutID(_ context.Context, _ repository.Tx, checkoutID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byCkt[checkoutID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTransactionRepo) MarkStatus(_ context.Context, _ repository.Tx, checkoutID string, status model.TransactionStatus, receipt *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byCkt[checkoutID]
	if !ok || t.Status.Terminal() {
		return false, nil
	}
	t.Status = status
	t.Receipt = receipt
	t.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockTransactionRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, t := range m.byCkt {
		out[string(t.Status)]++
	}
	return out, nil
}

func (m *mockTransactionRepo) SumSuccessfulSince(_ context.Context, _ repository.Tx, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, t := range m.byCkt {
		if t.Status == model.TransactionStatusSuccess && t.UpdatedAt.After(since) {
			sum += t.Amount
		}
	}
	return sum, nil
}

type mockSubscriberRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscriber
}

func newMockSubscriberRepo() *mockSubscriberRepo {
	return &mockSubscriberRepo{subs: make(map[string]*model.Subscriber)}
}

func (m *mockSubscriberRepo) FindByPhone(_ context.Context, _ repository.Tx, phone string) (*model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubscriberRepo) Upsert(_ context.Context, _ repository.Tx, s *model.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.Phone] = &cp
	return nil
}

func (m *mockSubscriberRepo) Count(_ context.Context, _ repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs), nil
}

func (m *mockSubscriberRepo) CountActive(_ context.Context, _ repository.Tx, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.ActiveAt(at) {
			n++
		}
	}
	return n, nil
}

type mockProvisionJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.ProvisionJob
}

func newMockProvisionJobRepo() *mockProvisionJobRepo {
	return &mockProvisionJobRepo{jobs: make(map[string]*model.ProvisionJob)}
}

func (m *mockProvisionJobRepo) Save(_ context.Context, _ repository.Tx, j *model.ProvisionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockProvisionJobRepo) Update(_ context.Context, _ repository.Tx, j *model.ProvisionJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockProvisionJobRepo) ListDue(_ context.Context, _ repository.Tx, now time.Time, limit int) ([]*model.ProvisionJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ProvisionJob
	for _, j := range m.jobs {
		if j.Status == model.ProvisionJobStatusPending && !j.NextAttemptAt.After(now) {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockGateway struct {
	mu     sync.Mutex
	pushes []string
	err    error
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) RequestSTKPush(_ context.Context, phone string, amount int64, accountRef, description string) (*adapter.STKResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.pushes = append(g.pushes, phone)
	return &adapter.STKResult{
		MerchantRequestID: fmt.Sprintf("mr-%d", len(g.pushes)),
		CheckoutRequestID: fmt.Sprintf("ws_CO_TEST_%d", len(g.pushes)),
		Description:       "Success. Request accepted for processing",
	}, nil
}

type mockController struct {
	mu          sync.Mutex
	subscribers []string
	profiles    []string
	subErr      error
	profErr     error
}

func (c *mockController) EnsureProfile(_ context.Context, name, rateLimit, sessionTimeout string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profErr != nil {
		return c.profErr
	}
	c.profiles = append(c.profiles, name)
	return nil
}

func (c *mockController) EnsureSubscriber(_ context.Context, phone, profile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return c.subErr
	}
	c.subscribers = append(c.subscribers, phone+":"+profile)
	return nil
}
