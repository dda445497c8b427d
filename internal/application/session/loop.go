// Package session runs the trading loop: score once, then iterate
// reconcile → aggregate → detect → enrich → reason → size → submit.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/copybot/internal/application/reasoning"
	"github.com/alejandrodnm/copybot/internal/application/risk"
	"github.com/alejandrodnm/copybot/internal/application/scoring"
	"github.com/alejandrodnm/copybot/internal/application/signal"
	"github.com/alejandrodnm/copybot/internal/application/tracker"
	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

const (
	DefaultMaxIterations = 20
	DefaultSampleSize    = 50
	DefaultTopK          = 10
	DefaultMaxRejections = 5
)

// ErrSetup marks failures before the first iteration (balance, scoring).
var ErrSetup = errors.New("session setup failed")

// Config holds the session parameters.
type Config struct {
	Live          bool
	MaxIterations int
	SampleSize    int // leaderboard traders scored at session start
	TopK          int // ranked traders whose positions are followed
	MinStake      decimal.Decimal
	OrderTTL      time.Duration // 0 disables expiry
	Delay         time.Duration // pause between iterations
	MaxRejections int           // consecutive venue rejections that end the session; < 0 disables
}

// Deps are the collaborators of a session. Scoring, signal, reasoning and
// risk components are built by the caller from the ports.
type Deps struct {
	Loader     *scoring.Loader
	Scorer     *scoring.Scorer
	Aggregator *signal.Aggregator
	Detector   *signal.Detector
	Enricher   *signal.Enricher
	Reasoner   *reasoning.Reasoner
	Sizer      *risk.Sizer
	Executor   ports.OrderExecutor
	Store      ports.OrderStore
	Notifier   ports.Notifier
}

// Loop owns one trading session. Iterations never overlap.
type Loop struct {
	cfg  Config
	deps Deps

	portfolio *domain.PortfolioState
	tracker   *tracker.Tracker
	breaker   *domain.CircuitBreaker
	top       []domain.TraderScore
	report    domain.SessionReport
}

// New creates a Loop. A nil Notifier disables printing.
func New(cfg Config, deps Deps) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxRejections == 0 {
		cfg.MaxRejections = DefaultMaxRejections
	}
	return &Loop{cfg: cfg, deps: deps}
}

// Portfolio returns the session portfolio; nil before Run.
func (l *Loop) Portfolio() *domain.PortfolioState {
	return l.portfolio
}

// Run executes the session and returns its report. Setup failures wrap
// ErrSetup. A broken portfolio invariant aborts the session with the
// report built so far.
func (l *Loop) Run(ctx context.Context) (domain.SessionReport, error) {
	if err := l.setup(ctx); err != nil {
		return domain.SessionReport{}, err
	}

	var runErr error
	for i := 1; i <= l.cfg.MaxIterations; i++ {
		if ctx.Err() != nil {
			slog.Info("session: context cancelled, stopping", "iteration", i)
			break
		}
		if err := l.RunOnce(ctx, i); err != nil {
			runErr = err
			break
		}
		if !l.breaker.IsOpen() {
			slog.Warn("session: circuit breaker tripped, stopping",
				"rejections", l.breaker.Consecutive,
				"reason", l.breaker.TriggeredReason,
			)
			break
		}
		if l.portfolio.Available.LessThan(l.cfg.MinStake) && len(l.portfolio.OpenOrders()) == 0 {
			slog.Info("session: balance exhausted, stopping", "available", l.portfolio.Available.StringFixed(2))
			break
		}
		if i < l.cfg.MaxIterations && !sleep(ctx, l.cfg.Delay) {
			break
		}
	}

	report := l.finish(ctx)
	return report, runErr
}

func (l *Loop) setup(ctx context.Context) error {
	balance, err := l.deps.Executor.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("session.Run: get balance: %v: %w", err, ErrSetup)
	}
	start := decimal.NewFromFloat(balance).RoundDown(2)
	if !start.IsPositive() {
		return fmt.Errorf("session.Run: starting balance $%s: %w", start.StringFixed(2), ErrSetup)
	}

	analysis, err := scoring.Analyze(ctx, l.deps.Loader, l.deps.Scorer, l.cfg.SampleSize, l.cfg.TopK)
	if err != nil {
		return fmt.Errorf("session.Run: %v: %w", err, ErrSetup)
	}
	if len(analysis.Top) == 0 {
		return fmt.Errorf("session.Run: no trader passed scoring: %w", ErrSetup)
	}

	sessionID := uuid.New().String()
	l.top = analysis.Top
	l.portfolio = domain.NewPortfolio(start)
	l.tracker = tracker.New(l.deps.Executor, l.deps.Store, l.portfolio, sessionID)
	l.breaker = domain.NewCircuitBreaker(max(l.cfg.MaxRejections, 0))
	l.report = domain.SessionReport{
		SessionID:       sessionID,
		Live:            l.cfg.Live,
		StartedAt:       time.Now().UTC(),
		StartingBalance: start,
	}

	slog.Info("session: started",
		"id", sessionID,
		"mode", l.report.Mode(),
		"balance", "$"+start.StringFixed(2),
		"top_traders", len(l.top),
		"max_iterations", l.cfg.MaxIterations,
	)
	return nil
}

// RunOnce executes one iteration. Only a broken invariant or an illegal
// order transition is returned as an error; every other failure degrades to
// a skip.
func (l *Loop) RunOnce(ctx context.Context, iteration int) error {
	l.report.Iterations = iteration

	// 1. Reconcile: settle orders the venue no longer lists as open
	if l.cfg.Live {
		if _, err := l.tracker.Reconcile(ctx); err != nil {
			slog.Warn("session: reconcile failed", "err", err)
		}
	}
	if _, err := l.tracker.ExpireStale(ctx, l.cfg.OrderTTL); err != nil {
		return fmt.Errorf("session.RunOnce: %w", err)
	}

	// 2. Aggregate: current holdings of the top traders
	positions, failed := l.deps.Aggregator.Collect(ctx, l.top)
	for _, f := range failed {
		slog.Warn("session: trader positions unavailable", "wallet", f.Wallet, "reason", f.Reason)
	}

	// 3. Detect: consensus candidates, minus pairs we already hold
	cands := l.deps.Detector.Detect(l.top, positions)
	l.report.CandidatesConsidered += len(cands)

	fresh, dups := l.tracker.FilterDuplicates(cands)
	for _, c := range dups {
		l.report.DuplicatesPrevented++
		l.skip(iteration, c, domain.StageTrack, "duplicate prevented")
	}

	// 4. Enrich + 5. Reason
	enriched := l.deps.Enricher.Enrich(ctx, fresh)
	recs := l.deps.Reasoner.RecommendAll(ctx, enriched)
	for _, r := range recs {
		if r.Trade {
			continue
		}
		stage := domain.StageReason
		if r.Candidate.MarketError != "" {
			stage = domain.StageEnrich
		}
		l.skip(iteration, r.Candidate, stage, r.SkipReason)
	}

	// 6. Size: accepted stakes are already debited
	decisions := l.deps.Sizer.Size(l.portfolio, recs)

	// 7. Submit
	placed := 0
	for _, d := range decisions {
		c := d.Recommendation.Candidate
		if !d.Accepted {
			l.skip(iteration, c, domain.StageSize, d.Reason)
			continue
		}

		if !l.breaker.IsOpen() {
			l.portfolio.Credit(d.Stake)
			l.skip(iteration, c, domain.StageTrack, "circuit breaker open")
			continue
		}

		order, err := orderFromDecision(d)
		if err != nil {
			l.portfolio.Credit(d.Stake)
			l.skip(iteration, c, domain.StageTrack, err.Error())
			continue
		}

		res, err := l.tracker.Submit(ctx, order)
		if err != nil {
			return fmt.Errorf("session.RunOnce: %w", err)
		}
		switch res {
		case tracker.ResultPlaced:
			placed++
			l.report.OrdersPlaced++
			l.breaker.RecordSuccess()
		case tracker.ResultDuplicate:
			l.report.DuplicatesPrevented++
			l.skip(iteration, c, domain.StageTrack, res.String())
		case tracker.ResultRejected:
			l.skip(iteration, c, domain.StageTrack, "rejected by venue")
			l.breaker.RecordRejection(fmt.Sprintf("%s/%s rejected", c.MarketID, c.Outcome))
		}
	}

	// 8. Invariant
	if err := l.portfolio.CheckInvariant(); err != nil {
		return fmt.Errorf("session.RunOnce: iteration %d: %w", iteration, err)
	}

	slog.Info("session: iteration complete",
		"iteration", iteration,
		"positions", len(positions),
		"candidates", len(cands),
		"duplicates", len(dups),
		"placed", placed,
		"open", len(l.portfolio.OpenOrders()),
		"available", "$"+l.portfolio.Available.StringFixed(2),
	)
	return nil
}

func (l *Loop) finish(ctx context.Context) domain.SessionReport {
	r := l.report
	r.FinishedAt = time.Now().UTC()
	r.FinalBalance = l.portfolio.Available
	r.TotalInvested = l.portfolio.Invested
	for _, o := range l.portfolio.Orders {
		if o.Status == domain.StatusRejected {
			continue
		}
		r.Positions = append(r.Positions, domain.PositionSummary{
			OrderID:      o.ID,
			MarketID:     o.MarketID,
			Title:        o.Title,
			Outcome:      o.Outcome,
			Stake:        o.Stake,
			Price:        o.MaxPrice,
			Confidence:   o.Confidence,
			Rationale:    o.Rationale,
			Citations:    o.Citations,
			Status:       o.Status,
			VenueOrderID: o.VenueOrderID,
		})
	}

	// contexto propio: el de la sesión puede estar cancelado
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := l.deps.Store.SaveSession(saveCtx, r); err != nil {
		slog.Error("session: failed to save report", "id", r.SessionID, "err", err)
	}
	if l.deps.Notifier != nil {
		if err := l.deps.Notifier.NotifySession(saveCtx, r); err != nil {
			slog.Warn("session: notifier error", "err", err)
		}
	}

	slog.Info("session: finished",
		"id", r.SessionID,
		"iterations", r.Iterations,
		"placed", r.OrdersPlaced,
		"duplicates_prevented", r.DuplicatesPrevented,
		"final_balance", "$"+r.FinalBalance.StringFixed(2),
	)
	return r
}

func (l *Loop) skip(iteration int, c domain.ConsensusCandidate, stage, reason string) {
	l.report.Skips = append(l.report.Skips, domain.SkipRecord{
		Iteration: iteration,
		MarketID:  c.MarketID,
		Outcome:   c.Outcome,
		Stage:     stage,
		Reason:    reason,
	})
}

// orderFromDecision builds the order for an accepted sizing decision.
func orderFromDecision(d risk.Decision) (*domain.Order, error) {
	rec := d.Recommendation
	c := rec.Candidate
	out, ok := c.Market.Outcome(c.Outcome)
	if !ok || out.TokenID == "" {
		return nil, fmt.Errorf("no token for outcome %q", c.Outcome)
	}
	return &domain.Order{
		MarketID:    c.MarketID,
		ConditionID: c.Market.ConditionID,
		TokenID:     out.TokenID,
		Title:       c.Market.Title,
		Outcome:     c.Outcome,
		Stake:       d.Stake,
		Price:       c.Price,
		MaxPrice:    d.MaxPrice,
		NegRisk:     c.Market.NegRisk,
		Confidence:  rec.Confidence,
		Rationale:   rec.Rationale,
		Citations:   rec.Citations,
	}, nil
}

// sleep waits d or until ctx is done; false means the context ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
