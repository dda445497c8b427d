package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PortfolioState is the capital owned by one session.
//
// It is a closed system: Available + Σ stake of holding orders + Filled
// always equals StartingBalance − Realized. Only the sizer (Debit) and the
// tracker (Record, Release, MarkFilled) mutate it.
type PortfolioState struct {
	StartingBalance decimal.Decimal
	Available       decimal.Decimal
	Invested        decimal.Decimal // cumulative stake of orders that reached OPEN
	Filled          decimal.Decimal // stake settled into filled orders
	Realized        decimal.Decimal // losses booked against the starting balance
	Orders          []*Order
}

// NewPortfolio returns a portfolio with all capital available.
func NewPortfolio(starting decimal.Decimal) *PortfolioState {
	return &PortfolioState{
		StartingBalance: starting,
		Available:       starting,
	}
}

// Debit claims amount from the available balance.
func (p *PortfolioState) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("portfolio.Debit: negative amount %s", amount)
	}
	if amount.GreaterThan(p.Available) {
		return fmt.Errorf("portfolio.Debit: %s > %s: %w", amount, p.Available, ErrInsufficientBalance)
	}
	p.Available = p.Available.Sub(amount)
	return nil
}

// Credit returns an unused claim to the available balance.
func (p *PortfolioState) Credit(amount decimal.Decimal) {
	p.Available = p.Available.Add(amount)
}

// Record appends an order whose stake was already debited.
func (p *PortfolioState) Record(o *Order) {
	p.Orders = append(p.Orders, o)
}

// Release settles an order that ended without a full fill: the matched part
// (o.Matched) counts as filled and the rest goes back to available.
// The caller has already moved the order to a terminal non-filled state.
func (p *PortfolioState) Release(o *Order) {
	spent := decimal.Min(decimal.Max(o.Matched, decimal.Zero), o.Stake)
	p.Filled = p.Filled.Add(spent)
	p.Available = p.Available.Add(o.Stake.Sub(spent))
}

// MarkFilled settles the stake of a filled order.
func (p *PortfolioState) MarkFilled(o *Order) {
	p.Filled = p.Filled.Add(o.Stake)
}

// OpenOrders returns the orders currently OPEN, in placement order.
func (p *PortfolioState) OpenOrders() []*Order {
	var out []*Order
	for _, o := range p.Orders {
		if o.Status == StatusOpen {
			out = append(out, o)
		}
	}
	return out
}

// HeldStake sums the stake of orders still holding capital.
func (p *PortfolioState) HeldStake() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range p.Orders {
		if o.Status.Holding() {
			sum = sum.Add(o.Stake)
		}
	}
	return sum
}

// MarketExposure sums the OPEN stake in one market, any outcome.
func (p *PortfolioState) MarketExposure(marketID string) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range p.Orders {
		if o.Status == StatusOpen && o.MarketID == marketID {
			sum = sum.Add(o.Stake)
		}
	}
	return sum
}

// Total is the current portfolio value: available plus committed capital.
func (p *PortfolioState) Total() decimal.Decimal {
	return p.Available.Add(p.HeldStake()).Add(p.Filled)
}

// CheckInvariant verifies the closed-system property.
func (p *PortfolioState) CheckInvariant() error {
	want := p.StartingBalance.Sub(p.Realized)
	if got := p.Total(); !got.Equal(want) {
		return fmt.Errorf("portfolio: available %s + held %s + filled %s = %s, want %s: %w",
			p.Available, p.HeldStake(), p.Filled, got, want, ErrInvariantBroken)
	}
	return nil
}
