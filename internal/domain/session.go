package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pipeline stages used in skip records.
const (
	StageAggregate = "aggregate"
	StageEnrich    = "enrich"
	StageReason    = "reason"
	StageSize      = "size"
	StageTrack     = "track"
)

// SkipRecord explains why a candidate did not become an order.
type SkipRecord struct {
	Iteration int
	MarketID  string
	Outcome   string
	Stage     string
	Reason    string
}

// PositionSummary is one placed order as shown in the session report.
type PositionSummary struct {
	OrderID      string
	MarketID     string
	Title        string
	Outcome      string
	Stake        decimal.Decimal
	Price        float64
	Confidence   float64
	Rationale    string
	Citations    []int
	Status       OrderStatus
	VenueOrderID string
}

// SessionReport is the observable outcome of a trading session.
type SessionReport struct {
	SessionID            string
	Live                 bool
	StartedAt            time.Time
	FinishedAt           time.Time
	Iterations           int
	StartingBalance      decimal.Decimal
	FinalBalance         decimal.Decimal
	TotalInvested        decimal.Decimal
	CandidatesConsidered int
	OrdersPlaced         int
	DuplicatesPrevented  int
	Skips                []SkipRecord
	Positions            []PositionSummary
}

// Mode returns "live" or "dry-run".
func (r SessionReport) Mode() string {
	if r.Live {
		return "live"
	}
	return "dry-run"
}
