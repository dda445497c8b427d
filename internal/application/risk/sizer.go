// Package risk sizes trade recommendations against the session portfolio.
package risk

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Config holds the portfolio constraints.
type Config struct {
	MaxBetPct         float64         // per-bet cap as a fraction of available balance
	MaxMarketExposure float64         // max fraction of the portfolio in one market
	MinStake          decimal.Decimal // smallest tradable stake; below it the bet is skipped
	SlippageBps       int             // max price = price × (1 + bps/10000)
	TickSize          float64
}

// DefaultConfig returns the default constraints.
func DefaultConfig() Config {
	return Config{
		MaxBetPct:         0.5,
		MaxMarketExposure: 0.5,
		MinStake:          decimal.NewFromInt(1),
		SlippageBps:       200,
		TickSize:          0.01,
	}
}

// Decision is the sizing outcome for one trade recommendation.
type Decision struct {
	Recommendation domain.Recommendation
	Accepted       bool
	Stake          decimal.Decimal
	MaxPrice       float64
	Reason         string // why it was rejected
}

// Sizer turns recommendations into stakes. Accepted stakes are debited from
// the portfolio immediately, so every later decision sees the remaining balance.
type Sizer struct {
	cfg Config
}

// NewSizer creates a Sizer. MaxBetPct is clamped to [0,1].
func NewSizer(cfg Config) *Sizer {
	cfg.MaxBetPct = min(max(cfg.MaxBetPct, 0), 1)
	if cfg.MaxMarketExposure <= 0 || cfg.MaxMarketExposure > 1 {
		cfg.MaxMarketExposure = 1
	}
	if cfg.TickSize <= 0 {
		cfg.TickSize = 0.01
	}
	return &Sizer{cfg: cfg}
}

// Size processes the trade=true recommendations in descending confidence
// order (ties by market id, then outcome) so stronger signals get first claim
// on scarce capital. Skip recommendations are ignored.
//
// For each one: stake = min(avail × maxBetPct, avail × (1 − exposureFrac)),
// capped so the market stays under MaxMarketExposure, scaled by the size hint,
// rounded down to cents. Stakes under MinStake are skipped, not submitted.
func (s *Sizer) Size(p *domain.PortfolioState, recs []domain.Recommendation) []Decision {
	var trades []domain.Recommendation
	for _, r := range recs {
		if r.Trade {
			trades = append(trades, r)
		}
	}
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Candidate.MarketID != b.Candidate.MarketID {
			return a.Candidate.MarketID < b.Candidate.MarketID
		}
		return a.Candidate.Outcome < b.Candidate.Outcome
	})

	// Claims debited here are not recorded as orders yet; track them so the
	// exposure math sees them.
	claimed := make(map[string]decimal.Decimal)
	claimedTotal := decimal.Zero

	decisions := make([]Decision, 0, len(trades))
	for _, rec := range trades {
		d := s.sizeOne(p, rec, claimed, claimedTotal)
		if d.Accepted {
			m := rec.Candidate.MarketID
			claimed[m] = claimed[m].Add(d.Stake)
			claimedTotal = claimedTotal.Add(d.Stake)
			slog.Info("sizer: stake accepted",
				"market", m,
				"outcome", rec.Candidate.Outcome,
				"confidence", rec.Confidence,
				"stake", d.Stake.StringFixed(2),
				"max_price", d.MaxPrice,
				"available", p.Available.StringFixed(2),
			)
		} else {
			slog.Info("sizer: recommendation not sized",
				"market", rec.Candidate.MarketID,
				"outcome", rec.Candidate.Outcome,
				"reason", d.Reason,
			)
		}
		decisions = append(decisions, d)
	}
	return decisions
}

func (s *Sizer) sizeOne(p *domain.PortfolioState, rec domain.Recommendation, claimed map[string]decimal.Decimal, claimedTotal decimal.Decimal) Decision {
	d := Decision{Recommendation: rec}

	price := rec.Candidate.Price
	if price <= 0 || price >= 1 {
		d.Reason = fmt.Sprintf("no usable price (%.4f)", price)
		return d
	}

	avail := p.Available
	if !avail.IsPositive() {
		d.Reason = "below minimum stake: no available balance"
		return d
	}

	marketID := rec.Candidate.MarketID
	total := p.Total().Add(claimedTotal)
	exposure := p.MarketExposure(marketID).Add(claimed[marketID])
	exposureFrac := decimal.Zero
	if total.IsPositive() {
		exposureFrac = exposure.Div(total)
	}
	maxExposure := decimal.NewFromFloat(s.cfg.MaxMarketExposure)
	if exposureFrac.GreaterThanOrEqual(maxExposure) {
		d.Reason = fmt.Sprintf("diversification cap: market exposure %s%% of portfolio",
			exposureFrac.Mul(decimal.NewFromInt(100)).StringFixed(1))
		return d
	}

	perBet := avail.Mul(decimal.NewFromFloat(s.cfg.MaxBetPct))
	divRoom := avail.Mul(decimal.NewFromInt(1).Sub(exposureFrac))
	capRoom := maxExposure.Mul(total).Sub(exposure)

	stake := decimal.Min(perBet, divRoom, capRoom)
	if rec.SizeHint > 0 && rec.SizeHint < 1 {
		stake = stake.Mul(decimal.NewFromFloat(rec.SizeHint))
	}
	stake = stake.RoundDown(2)

	if stake.LessThan(s.cfg.MinStake) {
		d.Reason = fmt.Sprintf("below minimum stake: %s < %s", stake.StringFixed(2), s.cfg.MinStake.StringFixed(2))
		return d
	}
	if err := p.Debit(stake); err != nil {
		d.Reason = err.Error()
		return d
	}

	d.Accepted = true
	d.Stake = stake
	d.MaxPrice = MaxAcceptablePrice(price, s.cfg.SlippageBps, s.cfg.TickSize)
	return d
}

// MaxAcceptablePrice is the limit price for a BUY: price plus slippage,
// clamped to the venue range and rounded down to the tick.
func MaxAcceptablePrice(price float64, slippageBps int, tick float64) float64 {
	p := price + price*float64(slippageBps)/10_000
	p = domain.RoundToTick(domain.ClampPrice(p), tick)
	return max(p, domain.MinPrice)
}
