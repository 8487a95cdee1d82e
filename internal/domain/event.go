package domain

import "time"

const (
	EventOrderCompleted = "order.completed"
	EventOrderFailed    = "order.failed"
)

// OrderEvent is published after every fulfilment attempt. ID is assigned by the publisher.
type OrderEvent struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	IntentID   int64      `json:"intent_id"`
	AccountID  int64      `json:"account_id"`
	PackageID  string     `json:"package_id"`
	Kind       IntentType `json:"kind"`
	OrderID    int64      `json:"order_id,omitempty"`
	ICCID      string     `json:"iccid,omitempty"`
	Caution    string     `json:"caution,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
