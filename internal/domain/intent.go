package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	StatusInitiated IntentStatus = "initiated"
	StatusStarted   IntentStatus = "started"
	StatusCompleted IntentStatus = "completed"
	StatusFailed    IntentStatus = "failed"
)

func (s IntentStatus) Valid() bool {
	switch s {
	case StatusInitiated, StatusStarted, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Active reports whether the intent still blocks a new purchase of the same package.
func (s IntentStatus) Active() bool {
	return s == StatusInitiated || s == StatusStarted
}

func (s IntentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition is the whole intent state machine:
// initiated -> started -> completed | failed.
func CanTransition(from, to IntentStatus) bool {
	switch from {
	case StatusInitiated:
		return to == StatusStarted
	case StatusStarted:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

type IntentType string

const (
	IntentSim   IntentType = "sim"
	IntentTopup IntentType = "topup"
)

// PriceSnapshot is written once, the first time an intent is resolved for payment.
type PriceSnapshot struct {
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	CurrencyRate decimal.Decimal `json:"currency_rate"`
}

type OrderIntent struct {
	ID        int64          `json:"id"`
	AccountID int64          `json:"account_id"`
	PackageID string         `json:"package_id"`
	ICCID     string         `json:"iccid,omitempty"`
	Type      IntentType     `json:"type"`
	Status    IntentStatus   `json:"status"`
	Snapshot  *PriceSnapshot `json:"snapshot,omitempty"`
	// PaymentRef is the transaction token of the payment that claimed the intent.
	PaymentRef string    `json:"payment_ref,omitempty"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IntentParams are the caller supplied fields of a create request.
type IntentParams struct {
	ICCID string `json:"iccid,omitempty"`
}

// ResolvedIntent is an intent joined with its package and priced for the account.
type ResolvedIntent struct {
	Intent  OrderIntent   `json:"intent"`
	Package Package       `json:"package"`
	Price   PriceSnapshot `json:"price"`
}

// Payment is what a payment gateway hands over once money has been collected.
// Amount is in the account's local currency.
type Payment struct {
	AccountID        int64           `json:"account_id"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionToken string          `json:"transaction_token"`
	Type             IntentType      `json:"type"`
}
