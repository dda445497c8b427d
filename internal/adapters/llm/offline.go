package llm

// offline.go: proveedor determinista basado en reglas.
//
// Permite ejecutar dry-runs sin API keys. Lee los mismos prompts que los
// proveedores remotos y responde con el mismo contrato JSON.

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/alejandrodnm/copybot/internal/domain"
)

var (
	pricePattern     = regexp.MustCompile(`Current price: ([0-9.]+)`)
	hoursPattern     = regexp.MustCompile(`Resolves in: ([0-9.]+) hours`)
	consensusPattern = regexp.MustCompile(`CONSENSUS: (\d+) traders, agreement score ([0-9.]+)`)
)

// Umbrales de la política conservadora.
const (
	offlineMinPrice  = 0.50
	offlineMaxPrice  = 0.80
	offlineMaxHours  = 30 * 24
	offlineNearHours = 14 * 24
)

// Estrategias de config/kb.txt citadas por el proveedor offline.
const (
	citeConsensus = 4 // Follow the Consensus
	citeFavorite  = 5 // Favor the Favorite
	citeNearTerm  = 6 // Near-Term Resolution
)

// Offline implementa ports.RationaleProvider sin red.
type Offline struct{}

// NewOffline crea el proveedor offline.
func NewOffline() *Offline { return &Offline{} }

// Name devuelve el identificador del proveedor.
func (Offline) Name() string { return ProviderOffline }

type offlineAnswer struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	Strategies []int   `json:"strategies"`
	SizeHint   float64 `json:"size_hint"`
}

// RequestTradeRationale aplica la política sobre los datos del prompt.
func (Offline) RequestTradeRationale(ctx context.Context, req domain.RationaleRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	price := matchFloat(pricePattern, req.Prompt, 1)
	hours := matchFloat(hoursPattern, req.Prompt, 1)
	traders := int(matchFloat(consensusPattern, req.Prompt, 1))
	agreement := matchFloat(consensusPattern, req.Prompt, 2)

	ans := decide(price, hours, traders, agreement)
	b, err := json.Marshal(ans)
	if err != nil {
		return "", fmt.Errorf("llm.Offline: %w", err)
	}
	return string(b), nil
}

func decide(price, hours float64, traders int, agreement float64) offlineAnswer {
	skip := func(reason string) offlineAnswer {
		return offlineAnswer{Action: "skip", Confidence: 0.2, Rationale: reason}
	}

	switch {
	case price <= 0:
		return skip("No current price available for the outcome.")
	case price < offlineMinPrice:
		return skip(fmt.Sprintf("Outcome priced at %.2f is not the market favorite.", price))
	case price > offlineMaxPrice:
		return skip(fmt.Sprintf("Outcome priced at %.2f leaves too little upside.", price))
	case hours > offlineMaxHours:
		return skip(fmt.Sprintf("Market resolves in %.0f days, too far out.", hours/24))
	case traders < 2:
		return skip("A single trader is not a consensus.")
	}

	// 0.55 base, +0.05 por trader adicional, +0.05 si resuelve pronto
	conf := 0.55 + 0.05*float64(traders-1)
	cites := []int{citeConsensus, citeFavorite}
	if hours > 0 && hours <= offlineNearHours {
		conf += 0.05
		cites = append(cites, citeNearTerm)
	}
	conf += math.Min(agreement, 1) * 0.05
	conf = math.Round(math.Min(conf, 0.85)*100) / 100

	return offlineAnswer{
		Action:     "trade",
		Confidence: conf,
		Rationale: fmt.Sprintf("%d top traders agree on the favorite at %.2f with agreement %.2f.",
			traders, price, agreement),
		Strategies: cites,
		SizeHint:   math.Round(conf*100) / 100,
	}
}

func matchFloat(re *regexp.Regexp, s string, group int) float64 {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) <= group {
		return 0
	}
	v, err := strconv.ParseFloat(m[group], 64)
	if err != nil {
		return 0
	}
	return v
}
