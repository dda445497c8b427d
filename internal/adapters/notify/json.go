package notify

import (
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Vistas JSON estables para --format json. Los importes van como string
// para no perder precisión decimal.

type sessionView struct {
	SessionID           string         `json:"session_id"`
	Mode                string         `json:"mode"`
	StartedAt           time.Time      `json:"started_at"`
	FinishedAt          time.Time      `json:"finished_at"`
	Iterations          int            `json:"iterations"`
	StartingBalance     string         `json:"starting_balance"`
	FinalBalance        string         `json:"final_balance"`
	TotalInvested       string         `json:"total_invested"`
	Candidates          int            `json:"candidates_considered"`
	OrdersPlaced        int            `json:"orders_placed"`
	DuplicatesPrevented int            `json:"duplicates_prevented"`
	Positions           []positionView `json:"positions"`
	Skips               []skipView     `json:"skips"`
}

type positionView struct {
	OrderID      string  `json:"order_id"`
	MarketID     string  `json:"market_id"`
	Title        string  `json:"title,omitempty"`
	Outcome      string  `json:"outcome"`
	Stake        string  `json:"stake"`
	Price        float64 `json:"price"`
	Confidence   float64 `json:"confidence"`
	Status       string  `json:"status"`
	VenueOrderID string  `json:"venue_order_id,omitempty"`
	Rationale    string  `json:"rationale"`
	Citations    []int   `json:"citations,omitempty"`
}

type skipView struct {
	Iteration int    `json:"iteration"`
	MarketID  string `json:"market_id"`
	Outcome   string `json:"outcome"`
	Stage     string `json:"stage"`
	Reason    string `json:"reason"`
}

type traderView struct {
	Rank        int     `json:"rank"`
	Wallet      string  `json:"wallet"`
	Name        string  `json:"name,omitempty"`
	Samples     int     `json:"samples"`
	Sharpe      float64 `json:"sharpe"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Volume      float64 `json:"volume"`
	PnL         float64 `json:"pnl"`
}

type analysisView struct {
	Ranked   []traderView       `json:"ranked"`
	Excluded []domain.Exclusion `json:"excluded"`
}

func sessionJSON(r domain.SessionReport) sessionView {
	v := sessionView{
		SessionID:           r.SessionID,
		Mode:                r.Mode(),
		StartedAt:           r.StartedAt,
		FinishedAt:          r.FinishedAt,
		Iterations:          r.Iterations,
		StartingBalance:     r.StartingBalance.StringFixed(2),
		FinalBalance:        r.FinalBalance.StringFixed(2),
		TotalInvested:       r.TotalInvested.StringFixed(2),
		Candidates:          r.CandidatesConsidered,
		OrdersPlaced:        r.OrdersPlaced,
		DuplicatesPrevented: r.DuplicatesPrevented,
		Positions:           make([]positionView, 0, len(r.Positions)),
		Skips:               make([]skipView, 0, len(r.Skips)),
	}
	for _, p := range r.Positions {
		v.Positions = append(v.Positions, positionView{
			OrderID:      p.OrderID,
			MarketID:     p.MarketID,
			Title:        p.Title,
			Outcome:      p.Outcome,
			Stake:        p.Stake.StringFixed(2),
			Price:        p.Price,
			Confidence:   p.Confidence,
			Status:       string(p.Status),
			VenueOrderID: p.VenueOrderID,
			Rationale:    p.Rationale,
			Citations:    p.Citations,
		})
	}
	for _, s := range r.Skips {
		v.Skips = append(v.Skips, skipView(s))
	}
	return v
}

func analysisJSON(ranked []domain.TraderScore, excluded []domain.Exclusion) analysisView {
	v := analysisView{
		Ranked:   make([]traderView, 0, len(ranked)),
		Excluded: excluded,
	}
	if v.Excluded == nil {
		v.Excluded = []domain.Exclusion{}
	}
	for i, s := range ranked {
		v.Ranked = append(v.Ranked, traderView{
			Rank:        i + 1,
			Wallet:      s.Trader.Wallet,
			Name:        s.Trader.Name,
			Samples:     s.Samples,
			Sharpe:      s.Sharpe,
			WinRate:     s.WinRate,
			MaxDrawdown: s.MaxDrawdown,
			Volume:      s.Trader.LeaderboardVolume,
			PnL:         s.Trader.LeaderboardPnL,
		})
	}
	return v
}
