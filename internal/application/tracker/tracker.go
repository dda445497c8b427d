// Package tracker owns the order lifecycle of a session.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

// Result is what happened to a submission.
type Result int

const (
	ResultPlaced Result = iota
	ResultDuplicate
	ResultRejected
)

func (r Result) String() string {
	switch r {
	case ResultPlaced:
		return "placed"
	case ResultDuplicate:
		return "duplicate prevented"
	case ResultRejected:
		return "rejected"
	}
	return "unknown"
}

// ReconcileSummary counts the orders that left the OPEN state.
type ReconcileSummary struct {
	Filled    int
	Cancelled int
	Expired   int
}

// Tracker keeps at most one OPEN order per (market, outcome) and moves every
// order through PENDING → SUBMITTED → {OPEN, REJECTED} → {FILLED, EXPIRED, CANCELLED}.
// Every transition is persisted. Not safe for concurrent use: the session loop
// is its only caller.
type Tracker struct {
	executor  ports.OrderExecutor
	store     ports.OrderStore
	portfolio *domain.PortfolioState
	sessionID string
	now       func() time.Time
}

// New creates a Tracker bound to one session portfolio.
func New(executor ports.OrderExecutor, store ports.OrderStore, portfolio *domain.PortfolioState, sessionID string) *Tracker {
	return &Tracker{
		executor:  executor,
		store:     store,
		portfolio: portfolio,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// HasOpen reports whether an OPEN order exists for the pair.
func (t *Tracker) HasOpen(marketID, outcome string) bool {
	key := domain.PairKey(marketID, outcome)
	for _, o := range t.portfolio.Orders {
		if o.Status == domain.StatusOpen && o.Key() == key {
			return true
		}
	}
	return false
}

// FilterDuplicates drops candidates that already have an OPEN order, before
// any capital or reasoning is spent on them.
func (t *Tracker) FilterDuplicates(cands []domain.ConsensusCandidate) (fresh, dups []domain.ConsensusCandidate) {
	for _, c := range cands {
		if t.HasOpen(c.MarketID, c.Outcome) {
			slog.Info("tracker: duplicate prevented",
				"market", c.MarketID,
				"outcome", c.Outcome,
			)
			dups = append(dups, c)
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, dups
}

// Submit places an order whose stake the sizer already debited.
//
// If an OPEN order exists for the same pair the stake is returned to the
// balance and nothing is sent. A venue rejection also returns the stake.
func (t *Tracker) Submit(ctx context.Context, order *domain.Order) (Result, error) {
	if t.HasOpen(order.MarketID, order.Outcome) {
		t.portfolio.Credit(order.Stake)
		slog.Info("tracker: duplicate prevented",
			"market", order.MarketID,
			"outcome", order.Outcome,
		)
		return ResultDuplicate, nil
	}

	now := t.now().UTC()
	order.ID = uuid.New().String()
	order.SessionID = t.sessionID
	order.Status = domain.StatusPending
	order.PlacedAt = now
	order.UpdatedAt = now
	t.portfolio.Record(order)
	t.save(ctx, order)

	if err := t.transition(ctx, order, domain.StatusSubmitted); err != nil {
		return ResultRejected, err
	}

	placed, err := t.executor.SubmitOrder(ctx, *order)
	if err != nil {
		slog.Warn("tracker: order rejected",
			"id", order.ID,
			"market", order.MarketID,
			"outcome", order.Outcome,
			"err", err,
		)
		if terr := t.transition(ctx, order, domain.StatusRejected); terr != nil {
			return ResultRejected, terr
		}
		t.portfolio.Release(order)
		return ResultRejected, nil
	}

	order.VenueOrderID = placed.VenueOrderID
	if err := t.transition(ctx, order, domain.StatusOpen); err != nil {
		return ResultRejected, err
	}
	t.portfolio.Invested = t.portfolio.Invested.Add(order.Stake)
	t.save(ctx, order)

	slog.Info("tracker: order open",
		"id", order.ID,
		"venue_id", order.VenueOrderID,
		"market", order.MarketID,
		"outcome", order.Outcome,
		"stake", order.Stake.StringFixed(2),
		"max_price", order.MaxPrice,
	)
	return ResultPlaced, nil
}

// Reconcile drops local OPEN orders the venue no longer lists as open.
// Orders whose final state cannot be fetched stay OPEN until the next call.
func (t *Tracker) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	var sum ReconcileSummary

	venueOrders, err := t.executor.GetOpenOrders(ctx)
	if err != nil {
		return sum, fmt.Errorf("tracker.Reconcile: open orders: %w", err)
	}
	live := make(map[string]domain.VenueOrder, len(venueOrders))
	for _, vo := range venueOrders {
		live[vo.VenueOrderID] = vo
	}

	for _, o := range t.portfolio.OpenOrders() {
		if o.VenueOrderID == "" || o.VenueOrderID == domain.SimulatedVenueID {
			continue
		}
		vo, ok := live[o.VenueOrderID]
		if !ok {
			vo, err = t.executor.GetOrder(ctx, o.VenueOrderID)
			if err != nil {
				slog.Warn("tracker: order state unknown, keeping open",
					"id", o.ID,
					"venue_id", o.VenueOrderID,
					"err", err,
				)
				continue
			}
			if vo.Status == domain.StatusOpen {
				// el listado puede ir por detrás (p.ej. órdenes "delayed"): sigue abierta
				slog.Debug("tracker: order missing from open list but still open on venue",
					"id", o.ID,
					"venue_id", o.VenueOrderID,
				)
				continue
			}
		}
		if err := t.settle(ctx, o, vo, &sum); err != nil {
			return sum, err
		}
	}

	if sum != (ReconcileSummary{}) {
		slog.Info("tracker: reconciled",
			"filled", sum.Filled,
			"cancelled", sum.Cancelled,
			"expired", sum.Expired,
			"still_open", len(t.portfolio.OpenOrders()),
		)
	}
	return sum, nil
}

// ExpireStale ends OPEN orders older than ttl. Simulated orders expire
// locally; live orders are cancelled on the venue first. ttl <= 0 is a no-op.
func (t *Tracker) ExpireStale(ctx context.Context, ttl time.Duration) (ReconcileSummary, error) {
	var sum ReconcileSummary
	if ttl <= 0 {
		return sum, nil
	}
	cutoff := t.now().Add(-ttl)
	for _, o := range t.portfolio.OpenOrders() {
		if o.PlacedAt.After(cutoff) {
			continue
		}
		vo := domain.VenueOrder{VenueOrderID: o.VenueOrderID, Status: domain.StatusExpired}
		if o.VenueOrderID != domain.SimulatedVenueID {
			if err := t.executor.CancelOrder(ctx, o.VenueOrderID); err != nil {
				slog.Warn("tracker: cancel stale order failed",
					"id", o.ID,
					"venue_id", o.VenueOrderID,
					"err", err,
				)
				continue
			}
			vo.Status = domain.StatusCancelled
			// lo ejecutado antes de la cancelación sigue invertido
			if got, err := t.executor.GetOrder(ctx, o.VenueOrderID); err == nil {
				vo.SizeMatched = got.SizeMatched
			} else {
				slog.Warn("tracker: matched size unknown after cancel",
					"id", o.ID,
					"venue_id", o.VenueOrderID,
					"err", err,
				)
			}
		}
		if err := t.settle(ctx, o, vo, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// settle applies a venue-reported final state to an OPEN order. A cancelled
// or expired order keeps its partially matched stake invested.
func (t *Tracker) settle(ctx context.Context, o *domain.Order, vo domain.VenueOrder, sum *ReconcileSummary) error {
	if vo.Status != domain.StatusOpen && vo.Status != domain.StatusFilled {
		o.Matched = o.MatchedStake(vo.SizeMatched)
	}
	switch vo.Status {
	case domain.StatusOpen:
		return nil
	case domain.StatusFilled:
		if err := t.transition(ctx, o, domain.StatusFilled); err != nil {
			return err
		}
		t.portfolio.MarkFilled(o)
		sum.Filled++
	case domain.StatusCancelled:
		if err := t.transition(ctx, o, domain.StatusCancelled); err != nil {
			return err
		}
		t.portfolio.Release(o)
		sum.Cancelled++
	default:
		if err := t.transition(ctx, o, domain.StatusExpired); err != nil {
			return err
		}
		t.portfolio.Release(o)
		sum.Expired++
	}
	if o.Matched.IsPositive() {
		slog.Info("tracker: order ended partially filled",
			"id", o.ID,
			"status", o.Status,
			"matched", o.Matched.StringFixed(2),
			"refunded", o.Stake.Sub(o.Matched).StringFixed(2),
		)
		t.save(ctx, o)
	}
	return nil
}

func (t *Tracker) transition(ctx context.Context, o *domain.Order, to domain.OrderStatus) error {
	if err := o.Transition(to, t.now().UTC()); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	if err := t.store.UpdateOrderStatus(ctx, o.ID, to); err != nil {
		slog.Error("tracker: failed to persist status", "id", o.ID, "status", to, "err", err)
	}
	return nil
}

func (t *Tracker) save(ctx context.Context, o *domain.Order) {
	if err := t.store.SaveOrder(ctx, *o); err != nil {
		slog.Error("tracker: failed to persist order", "id", o.ID, "err", err)
	}
}
