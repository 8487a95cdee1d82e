package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sim struct {
	ID         int64  `json:"id"`
	ICCID      string `json:"iccid"`
	LPA        string `json:"lpa,omitempty"`
	MatchingID string `json:"matching_id,omitempty"`
	QRCode     string `json:"qrcode,omitempty"`
	QRCodeURL  string `json:"qrcode_url,omitempty"`
}

// Order is the partner order (or top-up) payload, re-priced for the account.
type Order struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	PackageID   string          `json:"package_id"`
	Quantity    int             `json:"quantity"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Sims        []Sim           `json:"sims,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	CreatedAt   string          `json:"created_at,omitempty"`

	// Caution is set when the partner purchase succeeded but local bookkeeping did not.
	Caution string `json:"caution,omitempty"`
}

// AsyncOrder is the 202 acknowledgement of an asynchronous order.
type AsyncOrder struct {
	RequestID  string `json:"request_id"`
	AcceptedAt string `json:"accepted_at"`
}

// DefaultMarkup is applied to packages first seen during a catalog sync.
var DefaultMarkup = decimal.NewFromInt(25)

type Package struct {
	PackageID string          `json:"package_id"`
	Type      IntentType      `json:"type"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	NetPrice  decimal.Decimal `json:"net_price"`
	Markup    decimal.Decimal `json:"markup"`
	Day       int             `json:"day"`
	Amount    int             `json:"amount"`
}

type Account struct {
	ID         int64           `json:"id"`
	ResellerID int64           `json:"reseller_id"`
	Balance    decimal.Decimal `json:"balance"`
	CurrencyID *int64          `json:"currency_id,omitempty"`
}

type Currency struct {
	ID   int64           `json:"id"`
	Code string          `json:"currency"`
	Rate decimal.Decimal `json:"currency_rate"`
}

const SubscriptionActive = "active"

// Subscription is an eSIM held by an account. An active row blocks a second
// purchase of the same package.
type Subscription struct {
	OrderID   int64  `json:"order_id"`
	AccountID int64  `json:"account_id"`
	ICCID     string `json:"iccid"`
	PackageID string `json:"package_id"`
	Status    string `json:"status"`
}

type TopupLog struct {
	AccountID int64  `json:"account_id"`
	OrderID   int64  `json:"order_id"`
	ICCID     string `json:"iccid"`
	IntentID  int64  `json:"intent_id"`
	Code      string `json:"code"`
	PackageID string `json:"package_id"`
}

// Completion is persisted atomically with the started -> completed transition.
// Exactly one of Subscription and Topup is set.
type Completion struct {
	IntentID     int64
	ICCID        string
	Subscription *Subscription
	Topup        *TopupLog
}

type LedgerEntry struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account_id"`
	ResellerID     int64           `json:"reseller_id"`
	Debit          decimal.Decimal `json:"debit"`
	Description    string          `json:"description"`
	ItemType       IntentType      `json:"item_type"`
	TransactionRef string          `json:"transaction_ref"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceID     string          `json:"invoice_id"`
	AccountID     int64           `json:"account_id"`
	ResellerID    int64           `json:"reseller_id"`
	Debit         decimal.Decimal `json:"debit"`
	Description   string          `json:"description"`
	ItemType      IntentType      `json:"item_type"`
	BeforeBalance decimal.Decimal `json:"before_balance"`
	AfterBalance  decimal.Decimal `json:"after_balance"`
	CreatedAt     time.Time       `json:"created_at"`
}
