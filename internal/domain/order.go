package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order placed by the engine.
//
//	PENDING → SUBMITTED → {OPEN, REJECTED}
//	OPEN → {FILLED, EXPIRED, CANCELLED}
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusOpen      OrderStatus = "OPEN"
	StatusRejected  OrderStatus = "REJECTED"
	StatusFilled    OrderStatus = "FILLED"
	StatusExpired   OrderStatus = "EXPIRED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// SimulatedVenueID is the venue order id recorded for dry-run orders.
const SimulatedVenueID = "simulated"

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusSubmitted},
	StatusSubmitted: {StatusOpen, StatusRejected},
	StatusOpen:      {StatusFilled, StatusExpired, StatusCancelled},
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusFilled, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Holding reports whether an order in this state still holds capital that is
// neither available nor settled (PENDING, SUBMITTED, OPEN).
func (s OrderStatus) Holding() bool {
	return s == StatusPending || s == StatusSubmitted || s == StatusOpen
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a concrete BUY instruction on one outcome of one market.
type Order struct {
	ID           string // local UUID
	SessionID    string
	MarketID     string
	ConditionID  string
	TokenID      string
	Title        string
	Outcome      string
	Stake        decimal.Decimal // USDC committed
	Matched      decimal.Decimal // USDC spent on partial fills before the order ended
	Price        float64         // reference price at sizing time
	MaxPrice     float64         // limit price sent to the venue
	NegRisk      bool
	Status       OrderStatus
	VenueOrderID string // CLOB order hash, or SimulatedVenueID
	Confidence   float64
	Rationale    string
	Citations    []int
	PlacedAt     time.Time
	UpdatedAt    time.Time
}

// Key returns the (market, outcome) pair key.
func (o Order) Key() string {
	return PairKey(o.MarketID, o.Outcome)
}

// Shares is the number of outcome shares bought at MaxPrice.
func (o Order) Shares() float64 {
	if o.MaxPrice <= 0 {
		return 0
	}
	return o.Stake.InexactFloat64() / o.MaxPrice
}

// MatchedStake is the USDC spent on sharesMatched shares at MaxPrice,
// capped to [0, Stake].
func (o Order) MatchedStake(sharesMatched float64) decimal.Decimal {
	if sharesMatched <= 0 || o.MaxPrice <= 0 {
		return decimal.Zero
	}
	spent := decimal.NewFromFloat(sharesMatched).Mul(decimal.NewFromFloat(o.MaxPrice)).Round(6)
	return decimal.Min(spent, o.Stake)
}

// Transition moves the order to the next state or returns ErrInvalidTransition.
func (o *Order) Transition(to OrderStatus, at time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("order %s: %s → %s: %w", o.ID, o.Status, to, ErrInvalidTransition)
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

// PlacedOrder is the result of a successful submission to the venue.
type PlacedOrder struct {
	VenueOrderID string
	Status       string // raw venue status ("live", "matched", "delayed")
}

// VenueOrder is the state of an order as reported by the venue.
type VenueOrder struct {
	VenueOrderID string
	TokenID      string
	ConditionID  string
	Status       OrderStatus // OPEN, FILLED or CANCELLED after mapping
	SizeMatched  float64
}
