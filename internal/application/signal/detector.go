package signal

import (
	"sort"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// DefaultMinTraders is the minimum number of distinct traders for a consensus.
const DefaultMinTraders = 3

// Detector groups positions by (market, outcome) and keeps the pairs where
// enough ranked traders agree.
type Detector struct {
	minTraders int
}

// NewDetector creates a Detector. minTraders <= 0 uses DefaultMinTraders.
func NewDetector(minTraders int) *Detector {
	if minTraders <= 0 {
		minTraders = DefaultMinTraders
	}
	return &Detector{minTraders: minTraders}
}

// RankWeight is the weight of the trader at 0-based rank among k traders:
// (k − rank) / k, so the best trader weighs 1 and the last 1/k.
func RankWeight(rank, k int) float64 {
	if k <= 0 || rank < 0 || rank >= k {
		return 0
	}
	return float64(k-rank) / float64(k)
}

// AgreementScore is Σ rankWeight × (1 + stakeWeight) over the contributors.
// Every contributor adds at least its rank weight, so the score never
// decreases when a trader joins or when a contributor's weight grows.
func AgreementScore(contributors []domain.Contributor) float64 {
	var score float64
	for _, c := range contributors {
		score += c.RankWeight * (1 + c.StakeWeight)
	}
	return score
}

type group struct {
	marketID string
	outcome  string
	byTrader map[string]domain.Contributor
}

// Detect returns at most one candidate per market, sorted by agreement score
// descending, then market id and outcome ascending. It is a pure function:
// the same ranking and positions always produce the same output.
//
// Positions from traders outside ranked are ignored, as are positions against
// an outcome. A trader counts once per (market, outcome), with its largest stake.
func (d *Detector) Detect(ranked []domain.TraderScore, positions []domain.Position) []domain.ConsensusCandidate {
	k := len(ranked)
	rankOf := make(map[string]int, k)
	for i, ts := range ranked {
		if _, dup := rankOf[ts.Trader.Wallet]; !dup {
			rankOf[ts.Trader.Wallet] = i
		}
	}

	groups := make(map[string]*group)
	for _, p := range positions {
		if p.Side != domain.SideFor {
			continue
		}
		rank, ok := rankOf[p.TraderID]
		if !ok {
			continue
		}
		key := domain.PairKey(p.MarketID, p.Outcome)
		g, ok := groups[key]
		if !ok {
			g = &group{marketID: p.MarketID, outcome: p.Outcome, byTrader: make(map[string]domain.Contributor)}
			groups[key] = g
		}
		if prev, seen := g.byTrader[p.TraderID]; seen && prev.StakeWeight >= p.StakeWeight {
			continue
		}
		g.byTrader[p.TraderID] = domain.Contributor{
			TraderID:    p.TraderID,
			Rank:        rank,
			Score:       ranked[rank].Sharpe,
			RankWeight:  RankWeight(rank, k),
			StakeWeight: p.StakeWeight,
		}
	}

	best := make(map[string]domain.ConsensusCandidate)
	for _, g := range groups {
		if len(g.byTrader) < d.minTraders {
			continue
		}
		contributors := make([]domain.Contributor, 0, len(g.byTrader))
		for _, c := range g.byTrader {
			contributors = append(contributors, c)
		}
		sort.Slice(contributors, func(i, j int) bool {
			return contributors[i].Rank < contributors[j].Rank
		})

		cand := domain.ConsensusCandidate{
			MarketID:       g.marketID,
			Outcome:        g.outcome,
			Contributors:   contributors,
			AgreementScore: AgreementScore(contributors),
		}
		if cur, ok := best[g.marketID]; !ok || beats(cand, cur) {
			best[g.marketID] = cand
		}
	}

	out := make([]domain.ConsensusCandidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgreementScore != out[j].AgreementScore {
			return out[i].AgreementScore > out[j].AgreementScore
		}
		if out[i].MarketID != out[j].MarketID {
			return out[i].MarketID < out[j].MarketID
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out
}

// beats resolves a same-market conflict between two outcomes.
func beats(a, b domain.ConsensusCandidate) bool {
	if a.AgreementScore != b.AgreementScore {
		return a.AgreementScore > b.AgreementScore
	}
	if a.TraderCount() != b.TraderCount() {
		return a.TraderCount() > b.TraderCount()
	}
	return a.Outcome < b.Outcome
}
