package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Polymarket usa varios formatos de fecha; probamos los más comunes.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseTimestamp acepta unix en segundos o milisegundos, o una fecha ISO.
func parseTimestamp(n json.Number) time.Time {
	s := n.String()
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return time.UnixMilli(sec).UTC()
		}
		return time.Unix(sec, 0).UTC()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(f)
		return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
	}
	return parseDate(s)
}

func number(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}

// mapMarket convierte la respuesta de Gamma a domain.Market.
// Outcomes sin token se descartan; los precios que falten quedan a 0.
func mapMarket(gm gammaMarket) domain.Market {
	m := domain.Market{
		ID:              gm.Slug,
		ConditionID:     gm.ConditionID,
		Title:           gm.Question,
		EndDate:         parseDate(gm.EndDate),
		Active:          gm.Active,
		Closed:          gm.Closed,
		AcceptingOrders: gm.AcceptingOrders,
		NegRisk:         gm.NegRisk,
	}
	for i, label := range gm.Outcomes {
		if i >= len(gm.ClobTokenIDs) || gm.ClobTokenIDs[i] == "" {
			continue
		}
		o := domain.Outcome{Label: label, TokenID: gm.ClobTokenIDs[i]}
		if i < len(gm.OutcomePrices) {
			o.Price = domain.ParsePrice(gm.OutcomePrices[i])
		}
		m.Outcomes = append(m.Outcomes, o)
	}
	return m
}

// mapLeaderboard convierte el leaderboard a traders sin histórico.
// Sin rank explícito se usa la posición en la respuesta.
func mapLeaderboard(raw []leaderboardEntry) []domain.Trader {
	traders := make([]domain.Trader, 0, len(raw))
	for i, e := range raw {
		if e.ProxyWallet == "" {
			continue
		}
		rank, err := strconv.Atoi(e.Rank.String())
		if err != nil || rank <= 0 {
			rank = i + 1
		}
		traders = append(traders, domain.Trader{
			Wallet:            strings.ToLower(e.ProxyWallet),
			Name:              e.UserName,
			LeaderboardRank:   rank,
			LeaderboardVolume: number(e.Vol),
			LeaderboardPnL:    number(e.PnL),
		})
	}
	return traders
}

func mapTrades(wallet string, raw []dataTrade) []domain.Trade {
	trades := make([]domain.Trade, 0, len(raw))
	for _, rt := range raw {
		trades = append(trades, domain.Trade{
			ID:          rt.TransactionHash,
			Wallet:      wallet,
			ConditionID: rt.ConditionID,
			Slug:        rt.Slug,
			Outcome:     rt.Outcome,
			TokenID:     rt.Asset,
			Side:        strings.ToUpper(rt.Side),
			Price:       number(rt.Price),
			Size:        number(rt.Size),
			Timestamp:   parseTimestamp(rt.Timestamp),
		})
	}
	return trades
}

func mapHoldings(wallet string, raw []dataPosition) []domain.Holding {
	holdings := make([]domain.Holding, 0, len(raw))
	for _, p := range raw {
		holdings = append(holdings, domain.Holding{
			Wallet:       wallet,
			ConditionID:  p.ConditionID,
			Slug:         p.Slug,
			Title:        p.Title,
			Outcome:      p.Outcome,
			TokenID:      p.Asset,
			Size:         number(p.Size),
			AvgPrice:     number(p.AvgPrice),
			CurrentValue: number(p.CurrentValue),
			EndDate:      parseDate(p.EndDate),
		})
	}
	return holdings
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		result[r.AssetID] = domain.OrderBook{
			TokenID: r.AssetID,
			Bids:    mapBookEntries(r.Bids, false),
			Asks:    mapBookEntries(r.Asks, true),
		}
	}
	return result
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})
	return entries
}
