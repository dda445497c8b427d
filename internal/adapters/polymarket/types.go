package polymarket

import (
	"encoding/json"
	"strings"
)

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- CLOB API ---

// orderBookRequest es el body del POST /books batch.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de un item en POST /books.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaMarket es la respuesta de GET /markets/slug/{slug}.
// outcomes, outcomePrices y clobTokenIds llegan como arrays JSON serializados
// dentro de un string.
type gammaMarket struct {
	ID              string     `json:"id"`
	ConditionID     string     `json:"conditionId"`
	Question        string     `json:"question"`
	Slug            string     `json:"slug"`
	EndDate         string     `json:"endDate"`
	Outcomes        stringList `json:"outcomes"`
	OutcomePrices   stringList `json:"outcomePrices"`
	ClobTokenIDs    stringList `json:"clobTokenIds"`
	Active          bool       `json:"active"`
	Closed          bool       `json:"closed"`
	AcceptingOrders bool       `json:"acceptingOrders"`
	NegRisk         bool       `json:"negRisk"`
}

// stringList acepta tanto ["a","b"] como "[\"a\",\"b\"]".
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*l = nil
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return err
		}
		b = []byte(inner)
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// --- Data API ---

// leaderboardEntry es un item de GET /v1/leaderboard.
type leaderboardEntry struct {
	Rank        json.Number `json:"rank"`
	ProxyWallet string      `json:"proxyWallet"`
	UserName    string      `json:"userName"`
	Vol         json.Number `json:"vol"`
	PnL         json.Number `json:"pnl"`
}

// dataTrade es un fill de GET /trades?user=.
type dataTrade struct {
	ProxyWallet     string      `json:"proxyWallet"`
	TransactionHash string      `json:"transactionHash"`
	ConditionID     string      `json:"conditionId"`
	Asset           string      `json:"asset"`
	Side            string      `json:"side"`
	Price           json.Number `json:"price"`
	Size            json.Number `json:"size"`
	Timestamp       json.Number `json:"timestamp"`
	Slug            string      `json:"slug"`
	Outcome         string      `json:"outcome"`
}

// dataPosition es una posición abierta de GET /positions?user=.
type dataPosition struct {
	ProxyWallet  string      `json:"proxyWallet"`
	Asset        string      `json:"asset"`
	ConditionID  string      `json:"conditionId"`
	Size         json.Number `json:"size"`
	AvgPrice     json.Number `json:"avgPrice"`
	CurrentValue json.Number `json:"currentValue"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Outcome      string      `json:"outcome"`
	EndDate      string      `json:"endDate"`
}
