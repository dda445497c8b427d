// Package reasoning turns enriched candidates into trade recommendations.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

// DefaultMinConfidence is the threshold a trade must exceed; at or below it the trade resolves to skip.
const DefaultMinConfidence = 0.6

// Reasoner asks the AI provider about each candidate and parses the answer.
type Reasoner struct {
	provider      ports.RationaleProvider
	playbook      domain.Playbook
	minConfidence float64
	now           func() time.Time
}

// New creates a Reasoner. minConfidence <= 0 uses DefaultMinConfidence.
func New(provider ports.RationaleProvider, playbook domain.Playbook, minConfidence float64) *Reasoner {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Reasoner{
		provider:      provider,
		playbook:      playbook,
		minConfidence: minConfidence,
		now:           time.Now,
	}
}

// RecommendAll evaluates the candidates one by one, in order.
func (r *Reasoner) RecommendAll(ctx context.Context, cands []domain.ConsensusCandidate) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(cands))
	for _, c := range cands {
		out = append(out, r.Recommend(ctx, c))
	}
	return out
}

// Recommend never fails: provider errors, market data problems and malformed
// answers all become a skip with zero confidence and a Failure reason.
func (r *Reasoner) Recommend(ctx context.Context, c domain.ConsensusCandidate) domain.Recommendation {
	if c.MarketError != "" {
		slog.Info("reasoner: skipping candidate with bad market data",
			"market", c.MarketID,
			"outcome", c.Outcome,
			"reason", c.MarketError,
		)
		return domain.Skip(c, "market data: "+c.MarketError)
	}

	raw, err := r.provider.RequestTradeRationale(ctx, domain.RationaleRequest{
		System: SystemPrompt(r.now()),
		Prompt: BuildPrompt(c, r.playbook),
	})
	if err != nil {
		slog.Warn("reasoner: reasoning failure",
			"provider", r.provider.Name(),
			"market", c.MarketID,
			"err", err,
		)
		return domain.Skip(c, "reasoning failure: "+err.Error())
	}

	rec := Parse(raw, c, r.playbook, r.minConfidence)
	if rec.Failure != "" {
		slog.Warn("reasoner: reasoning failure",
			"provider", r.provider.Name(),
			"market", c.MarketID,
			"reason", rec.Failure,
		)
	} else {
		slog.Debug("reasoner: recommendation",
			"market", c.MarketID,
			"outcome", c.Outcome,
			"trade", rec.Trade,
			"confidence", rec.Confidence,
		)
	}
	return rec
}

type verdict struct {
	Action     *string  `json:"action"`
	Confidence *float64 `json:"confidence"`
	Rationale  string   `json:"rationale"`
	Strategies []int    `json:"strategies"`
	SizeHint   *float64 `json:"size_hint"`
}

// Parse converts a raw provider answer into a Recommendation.
//
// The first JSON object in raw is used, so code fences or prose around it are
// tolerated. A missing or invalid action or confidence yields a skip with
// confidence 0. A valid "trade" below minConfidence also resolves to skip.
func Parse(raw string, c domain.ConsensusCandidate, playbook domain.Playbook, minConfidence float64) domain.Recommendation {
	start := strings.Index(raw, "{")
	if start < 0 {
		return domain.Skip(c, "reasoning failure: no JSON object in response")
	}
	var v verdict
	if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&v); err != nil {
		return domain.Skip(c, "reasoning failure: malformed JSON: "+err.Error())
	}

	if v.Action == nil {
		return domain.Skip(c, "reasoning failure: missing action")
	}
	action := strings.ToLower(strings.TrimSpace(*v.Action))
	if action != "trade" && action != "skip" {
		return domain.Skip(c, fmt.Sprintf("reasoning failure: unknown action %q", *v.Action))
	}
	if v.Confidence == nil {
		return domain.Skip(c, "reasoning failure: missing confidence")
	}
	conf := *v.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 1 {
		return domain.Skip(c, fmt.Sprintf("reasoning failure: confidence %v outside [0,1]", conf))
	}

	rec := domain.Recommendation{
		Candidate:  c,
		Confidence: conf,
		Rationale:  strings.TrimSpace(v.Rationale),
	}
	for _, n := range v.Strategies {
		if playbook.ValidCitation(n) {
			rec.Citations = append(rec.Citations, n)
		}
	}
	if v.SizeHint != nil && *v.SizeHint > 0 && *v.SizeHint <= 1 {
		rec.SizeHint = *v.SizeHint
	}

	switch {
	case action == "skip":
		rec.SkipReason = "reasoner advised skip"
	case conf <= minConfidence:
		rec.SkipReason = fmt.Sprintf("confidence %.2f not above minimum %.2f", conf, minConfidence)
	default:
		rec.Trade = true
	}
	return rec
}
