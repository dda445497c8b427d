package reasoning_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/copybot/internal/application/reasoning"
	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	answer string
	err    error
	calls  int
	last   domain.RationaleRequest
}

func (m *mockProvider) RequestTradeRationale(_ context.Context, req domain.RationaleRequest) (string, error) {
	m.calls++
	m.last = req
	return m.answer, m.err
}

func (m *mockProvider) Name() string { return "mock" }

var playbook = domain.Playbook{Text: "1. Nothing Ever Happens\n2. News Scalping\n3. Favorites", Strategies: 3}

func candidate() domain.ConsensusCandidate {
	return domain.ConsensusCandidate{
		MarketID: "nba-bos-dal-2026-02-03",
		Outcome:  "Celtics",
		Contributors: []domain.Contributor{
			{TraderID: "0xaaaaaaaaaaaaaaaaaaaa", Rank: 0, Score: 2.1, RankWeight: 1, StakeWeight: 0.3},
		},
		AgreementScore: 1.3,
		Market: domain.Market{
			ID:      "nba-bos-dal-2026-02-03",
			Title:   "Celtics vs. Mavericks",
			EndDate: time.Now().Add(30 * time.Hour),
		},
		Price:     0.62,
		Headlines: []domain.Headline{{Title: "Tatum returns", Source: "ESPN"}},
	}
}

func TestRecommend_LowConfidenceResolvesToSkip(t *testing.T) {
	p := &mockProvider{answer: `{"action":"trade","confidence":0.2,"rationale":"weak"}`}
	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())

	assert.False(t, rec.Trade)
	assert.InDelta(t, 0.2, rec.Confidence, 1e-12)
	assert.Empty(t, rec.Failure)
	assert.Contains(t, rec.SkipReason, "below minimum")
}

func TestRecommend_TradeAboveThreshold(t *testing.T) {
	p := &mockProvider{answer: "Sure!\n```json\n" +
		`{"action":"TRADE","confidence":0.82,"rationale":" Strong favorite. ","strategies":[3,7,1],"size_hint":0.5}` +
		"\n```"}
	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())

	require.True(t, rec.Trade)
	assert.InDelta(t, 0.82, rec.Confidence, 1e-12)
	assert.Equal(t, "Strong favorite.", rec.Rationale)
	assert.Equal(t, []int{3, 1}, rec.Citations, "unknown strategy 7 dropped")
	assert.InDelta(t, 0.5, rec.SizeHint, 1e-12)

	assert.Contains(t, p.last.Prompt, "Celtics vs. Mavericks")
	assert.Contains(t, p.last.Prompt, "Tatum returns (ESPN)")
	assert.Contains(t, p.last.Prompt, "News Scalping")
	assert.Contains(t, p.last.System, "single JSON object")
}

func TestRecommend_MalformedAnswersBecomeSkip(t *testing.T) {
	cases := map[string]string{
		"no json":            "I think you should buy.",
		"broken json":        `{"action": "trade", "confidence": }`,
		"missing action":     `{"confidence": 0.9}`,
		"unknown action":     `{"action": "buy", "confidence": 0.9}`,
		"missing confidence": `{"action": "trade"}`,
		"confidence string":  `{"action": "trade", "confidence": "high"}`,
		"confidence > 1":     `{"action": "trade", "confidence": 1.7}`,
		"confidence < 0":     `{"action": "trade", "confidence": -0.1}`,
	}
	for name, answer := range cases {
		t.Run(name, func(t *testing.T) {
			rec := reasoning.New(&mockProvider{answer: answer}, playbook, 0.6).Recommend(context.Background(), candidate())
			assert.False(t, rec.Trade)
			assert.Equal(t, 0.0, rec.Confidence)
			assert.Contains(t, rec.Failure, "reasoning failure")
		})
	}
}

func TestRecommend_ProviderErrorIsSkip(t *testing.T) {
	p := &mockProvider{err: errors.New("context deadline exceeded")}
	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())
	assert.False(t, rec.Trade)
	assert.Contains(t, rec.Failure, "deadline")
}

func TestRecommend_MarketErrorSkipsWithoutCallingProvider(t *testing.T) {
	p := &mockProvider{answer: `{"action":"trade","confidence":0.99}`}
	c := candidate()
	c.MarketError = "market not found"

	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), c)

	assert.False(t, rec.Trade)
	assert.Equal(t, 0, p.calls)
	assert.Contains(t, rec.Failure, "market not found")
}

func TestRecommend_ExplicitSkip(t *testing.T) {
	p := &mockProvider{answer: `{"action":"skip","confidence":0.9,"rationale":"resolves in 40 days"}`}
	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())
	assert.False(t, rec.Trade)
	assert.Empty(t, rec.Failure)
	assert.Equal(t, "reasoner advised skip", rec.SkipReason)
}

func TestRecommendAll_KeepsOrder(t *testing.T) {
	p := &mockProvider{answer: `{"action":"trade","confidence":0.7}`}
	a, b := candidate(), candidate()
	b.MarketID = "other"
	recs := reasoning.New(p, playbook, 0).RecommendAll(context.Background(), []domain.ConsensusCandidate{a, b})
	require.Len(t, recs, 2)
	assert.Equal(t, "other", recs[1].Candidate.MarketID)
	assert.True(t, recs[0].Trade, "default minimum is 0.6")
}

func TestRecommend_ConfidenceMustExceedMinimum(t *testing.T) {
	p := &mockProvider{answer: `{"action":"trade","confidence":0.6,"rationale":"borderline"}`}
	rec := reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())
	assert.False(t, rec.Trade)
	assert.Contains(t, rec.SkipReason, "not above minimum")

	p.answer = `{"action":"trade","confidence":0.61,"rationale":"just above"}`
	rec = reasoning.New(p, playbook, 0.6).Recommend(context.Background(), candidate())
	assert.True(t, rec.Trade)
}
