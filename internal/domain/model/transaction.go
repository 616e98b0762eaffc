package model

import (
	"regexp"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending" // STK push sent; awaiting callback
	TransactionStatusSuccess TransactionStatus = "success" // gateway confirmed payment
	TransactionStatusFailed  TransactionStatus = "failed"  // gateway reported failure/cancel
)

// Terminal reports whether the status admits no further transition.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// Transaction records one payment attempt. CheckoutRequestID is the
// correlation id echoed back by the gateway callback and is the only way
// the webhook locates the row. Status moves out of pending exactly once.
type Transaction struct {
	ID                int64
	Phone             string
	Amount            int64
	PlanID            *int64
	MerchantRequestID string
	CheckoutRequestID string
	Status            TransactionStatus
	Receipt           *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

var phoneRe = regexp.MustCompile(`^254\d{9}$`)

// ValidPhone reports whether p is an MSISDN in the 254XXXXXXXXX form the
// gateway accepts.
func ValidPhone(p string) bool { return phoneRe.MatchString(p) }
