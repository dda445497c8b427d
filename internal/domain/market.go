package domain

import (
	"strings"
	"time"
)

// Market representa un mercado de Polymarket tal como lo devuelve Gamma.
// Es un hecho externo de solo lectura: se vuelve a pedir en cada iteración.
type Market struct {
	ID              string // slug del mercado
	ConditionID     string
	Title           string
	Outcomes        []Outcome
	EndDate         time.Time
	Active          bool
	Closed          bool
	AcceptingOrders bool
	NegRisk         bool
}

// Outcome es uno de los resultados legales del mercado.
type Outcome struct {
	Label   string
	TokenID string
	Price   float64 // último precio conocido (probabilidad implícita)
}

// Outcome busca un resultado por etiqueta (sin distinguir mayúsculas).
func (m Market) Outcome(label string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if strings.EqualFold(o.Label, label) {
			return o, true
		}
	}
	return Outcome{}, false
}

// Tradeable indica si el mercado acepta órdenes nuevas en el instante now:
// activo, no cerrado, aceptando órdenes y sin fecha de resolución pasada.
func (m Market) Tradeable(now time.Time) bool {
	if !m.Active || m.Closed || !m.AcceptingOrders {
		return false
	}
	if !m.EndDate.IsZero() && !m.EndDate.After(now) {
		return false
	}
	return true
}

// HoursToResolution devuelve las horas hasta que el mercado se resuelve.
// Devuelve 0 si EndDate no está definido.
func (m Market) HoursToResolution() float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := time.Until(m.EndDate).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// TruncateQuestion devuelve el texto truncado a maxLen caracteres.
// Si está vacío usa los primeros caracteres de fallback (slug, wallet, condition id).
func TruncateQuestion(question, fallback string, maxLen int) string {
	q := question
	if q == "" {
		if len(fallback) > 20 {
			q = fallback[:20] + "..."
		} else {
			q = fallback
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
