package payment

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/owagajadoh/hotspot-billing/internal/domain/ports/adapter"
)

// Daraja delivers the STK result wrapped in a Body.stkCallback envelope.
// Metadata items are name/value pairs whose values arrive as strings or
// JSON numbers depending on the field, so they are decoded loosely here
// and normalized once.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback decodes a Daraja webhook body into the provider-agnostic
// result the orchestrator consumes. A missing CheckoutRequestID makes the
// payload structurally invalid.
func ParseCallback(r io.Reader) (*adapter.PaymentResult, error) {
	var env stkCallbackEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode stk callback: %w", err)
	}
	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("stk callback missing CheckoutRequestID")
	}

	res := &adapter.PaymentResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		Success:           cb.ResultCode == 0,
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			res.Amount = asInt64(item.Value)
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				res.Receipt = s
			}
		case "PhoneNumber":
			if n := asInt64(item.Value); n > 0 {
				res.Phone = strconv.FormatInt(n, 10)
			} else if s, ok := item.Value.(string); ok {
				res.Phone = s
			}
		}
	}
	return res, nil
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
