package domain

import "time"

// Contributor es un trader que respalda un ConsensusCandidate.
type Contributor struct {
	TraderID    string
	Rank        int     // 0 = mejor Sharpe
	Score       float64 // Sharpe del trader
	RankWeight  float64 // (K - rank) / K
	StakeWeight float64
}

// Headline es un titular de noticias asociado a un candidato.
type Headline struct {
	Title       string
	Source      string
	Link        string
	PublishedAt time.Time
}

// ConsensusCandidate es un par (mercado, outcome) en el que coinciden varios
// top traders. Vive solo durante la iteración: se descarta tras el Reasoner.
type ConsensusCandidate struct {
	MarketID       string
	Outcome        string
	Contributors   []Contributor
	AgreementScore float64

	// Enriquecimiento
	Market      Market
	Price       float64 // precio actual del outcome
	Headlines   []Headline
	Citations   []int
	MarketError string // fallo de datos del mercado; el Reasoner lo convierte en skip
}

// TraderCount devuelve el número de traders distintos que respaldan el candidato.
func (c ConsensusCandidate) TraderCount() int {
	return len(c.Contributors)
}

// Key identifica el par (mercado, outcome).
func (c ConsensusCandidate) Key() string {
	return PairKey(c.MarketID, c.Outcome)
}

// PairKey es la clave canónica de un par (mercado, outcome).
func PairKey(marketID, outcome string) string {
	return marketID + "|" + outcome
}
