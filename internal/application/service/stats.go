package service

import "time"

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCaution   Outcome = "caution"
	OutcomeFailed    Outcome = "failed"
)

// FulfillStats reports how a fulfilment went and where the time was spent.
type FulfillStats struct {
	Outcome       Outcome
	PartnerMs     float64
	BookkeepingMs float64
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
