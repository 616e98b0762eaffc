package adapter

import "context"

// STKResult is the synchronous half of a push-payment request. The
// CheckoutRequestID correlates the later asynchronous confirmation.
type STKResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	Description       string
}

// PaymentResult is the provider-agnostic view of a payment confirmation
// callback, decoded at the infra boundary.
type PaymentResult struct {
	CheckoutRequestID string
	MerchantRequestID string
	Success           bool
	ResultCode        int
	ResultDesc        string
	Amount            int64
	Receipt           string
	Phone             string
}

// PaymentGateway is the hex port for mobile-money providers.
type PaymentGateway interface {
	Name() string
	// RequestSTKPush asks the provider to push a payment prompt to the
	// subscriber's handset.
	RequestSTKPush(ctx context.Context, phone string, amount int64, accountRef, description string) (*STKResult, error)
}
