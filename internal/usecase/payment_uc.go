package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/owagajadoh/hotspot-billing/internal/domain"
	"github.com/owagajadoh/hotspot-billing/internal/domain/model"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/repository"
	"github.com/owagajadoh/hotspot-billing/internal/infra/logging"
	"github.com/owagajadoh/hotspot-billing/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase drives a purchase from the initial push prompt through the
// asynchronous confirmation to the access grant.
type PaymentUseCase interface {
	// Checkout sends a payment prompt to the phone for the plan's price
	// and records the pending transaction.
	Checkout(ctx context.Context, phone string, planID int64) (*model.Transaction, error)
	// HandleCallback settles the transaction named by the gateway
	// confirmation. Unknown correlation ids and repeated confirmations
	// are benign no-ops.
	HandleCallback(ctx context.Context, res *adapter.PaymentResult) error
}

type paymentUC struct {
	txns    repository.TransactionRepository
	plans   repository.PlanRepository
	gateway adapter.PaymentGateway
	access  AccessUseCase
	log     *zerolog.Logger
	now     func() time.Time
}

func NewPaymentUseCase(
	txns repository.TransactionRepository,
	plans repository.PlanRepository,
	gateway adapter.PaymentGateway,
	access AccessUseCase,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		txns:    txns,
		plans:   plans,
		gateway: gateway,
		access:  access,
		log:     &l,
		now:     time.Now,
	}
}

func (u *paymentUC) Checkout(ctx context.Context, phone string, planID int64) (*model.Transaction, error) {
	if !model.ValidPhone(phone) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPhone, phone)
	}
	plan, err := u.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, domain.ErrNotFound
	}

	stk, err := u.gateway.RequestSTKPush(ctx, phone, plan.Price, plan.Name, "Hotspot "+plan.Name)
	if err != nil {
		u.log.Warn().Err(err).Str("phone", logging.Redact(phone)).Int64("plan_id", plan.ID).Msg("push prompt rejected")
		return nil, err
	}

	now := u.now()
	t := &model.Transaction{
		Phone:             phone,
		Amount:            plan.Price,
		PlanID:            &plan.ID,
		MerchantRequestID: stk.MerchantRequestID,
		CheckoutRequestID: stk.CheckoutRequestID,
		Status:            model.TransactionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := u.txns.Save(ctx, nil, t); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.TransactionStatusPending))
	u.log.Info().
		Str("phone", logging.Redact(phone)).
		Int64("plan_id", plan.ID).
		Str("checkout_id", t.CheckoutRequestID).
		Msg("payment initiated")
	return t, nil
}

func (u *paymentUC) HandleCallback(ctx context.Context, res *adapter.PaymentResult) error {
	log := u.log.With().Str("checkout_id", res.CheckoutRequestID).Logger()

	txn, err := u.txns.FindByCheckoutID(ctx, nil, res.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Gateways replay old or foreign confirmations; nothing of
			// ours to settle.
			log.Warn().Msg("confirmation for unknown checkout id, ignored")
			return nil
		}
		return err
	}

	if !res.Success {
		changed, err := u.txns.MarkStatus(ctx, nil, res.CheckoutRequestID, model.TransactionStatusFailed, nil)
		if err != nil {
			return err
		}
		if !changed {
			metrics.IncPayment("duplicate")
			return nil
		}
		metrics.IncPayment(string(model.TransactionStatusFailed))
		log.Info().Int("result_code", res.ResultCode).Str("result_desc", res.ResultDesc).Msg("payment failed at gateway")
		return nil
	}

	var receipt *string
	if res.Receipt != "" {
		receipt = &res.Receipt
	}
	changed, err := u.txns.MarkStatus(ctx, nil, res.CheckoutRequestID, model.TransactionStatusSuccess, receipt)
	if err != nil {
		return err
	}
	if !changed {
		metrics.IncPayment("duplicate")
		log.Info().Msg("confirmation for settled transaction, ignored")
		return nil
	}

	amount := res.Amount
	if amount == 0 {
		amount = txn.Amount
	}
	metrics.IncPayment(string(model.TransactionStatusSuccess))
	metrics.AddPaymentRevenue("KES", amount)

	plan, err := u.resolvePlan(ctx, txn, amount)
	if err != nil {
		log.Error().Err(err).Int64("amount", amount).Msg("paid amount matches no plan, access not granted")
		metrics.IncPaymentUnmatched()
		return nil
	}

	phone := txn.Phone
	if model.ValidPhone(res.Phone) {
		phone = res.Phone
	}
	if _, err := u.access.Grant(ctx, phone, plan); err != nil {
		log.Error().Err(err).Str("phone", logging.Redact(phone)).Msg("access grant failed after settled payment")
		return err
	}
	log.Info().Str("phone", logging.Redact(phone)).Int64("plan_id", plan.ID).Msg("payment settled, access granted")
	return nil
}

// resolvePlan prefers the plan the transaction was opened for; payments
// arriving without one fall back to matching the amount against the active
// catalog. When the settled amount disagrees with the recorded plan's price
// the amount decides: the money that moved names the plan that was bought.
func (u *paymentUC) resolvePlan(ctx context.Context, txn *model.Transaction, amount int64) (*model.Plan, error) {
	if txn.PlanID != nil {
		plan, err := u.plans.FindByID(ctx, nil, *txn.PlanID)
		switch {
		case err == nil:
			if amount == 0 || plan.Price == amount {
				return plan, nil
			}
			u.log.Warn().
				Str("checkout_id", txn.CheckoutRequestID).
				Int64("plan_id", plan.ID).
				Int64("plan_price", plan.Price).
				Int64("amount", amount).
				Msg("settled amount differs from recorded plan price, matching by amount")
			matched, merr := u.plans.FindActiveByPrice(ctx, nil, amount)
			if merr == nil {
				return matched, nil
			}
			if !errors.Is(merr, domain.ErrNotFound) {
				return nil, merr
			}
			// Nothing in the catalog sells for that amount; the recorded
			// plan is the best remaining account of the purchase.
			return plan, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	plan, err := u.plans.FindActiveByPrice(ctx, nil, amount)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoMatchingPlan
		}
		return nil, err
	}
	return plan, nil
}
