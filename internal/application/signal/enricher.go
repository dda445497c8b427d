package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

// DefaultNewsLimit is the number of headlines attached to each candidate.
const DefaultNewsLimit = 5

// EnricherConfig controls the Enricher.
type EnricherConfig struct {
	NewsLimit int
	Workers   int
}

// Enricher attaches market metadata, the current price and recent news to
// each candidate.
type Enricher struct {
	markets ports.MarketProvider
	books   ports.BookProvider
	news    ports.NewsSearcher
	cfg     EnricherConfig
	now     func() time.Time
}

// NewEnricher creates an Enricher. books and news may be nil.
func NewEnricher(markets ports.MarketProvider, books ports.BookProvider, news ports.NewsSearcher, cfg EnricherConfig) *Enricher {
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = DefaultNewsLimit
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Enricher{markets: markets, books: books, news: news, cfg: cfg, now: time.Now}
}

// Enrich returns the candidates in the same order, enriched.
//
// A failed news lookup leaves Headlines empty. A missing or untradeable market
// sets MarketError, which the reasoner turns into a skip; the candidate is
// never dropped here so the session report can account for it.
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.ConsensusCandidate) []domain.ConsensusCandidate {
	out := make([]domain.ConsensusCandidate, len(candidates))
	copy(out, candidates)

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := range out {
		g.Go(func() error {
			e.enrichOne(ctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	e.attachBookPrices(ctx, out)
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, c *domain.ConsensusCandidate) {
	m, err := e.markets.FetchMarket(ctx, c.MarketID)
	if err != nil {
		reason := "market lookup failed"
		if errors.Is(err, domain.ErrNotFound) {
			reason = "market not found"
		}
		slog.Warn("enricher: "+reason, "market", c.MarketID, "err", err)
		c.MarketError = reason
		return
	}
	c.Market = m

	switch outcome, ok := m.Outcome(c.Outcome); {
	case !ok:
		c.MarketError = fmt.Sprintf("outcome %q not offered by market", c.Outcome)
	case !m.Tradeable(e.now()):
		c.MarketError = domain.ErrMarketNotTradeable.Error()
	default:
		c.Price = outcome.Price
	}

	if e.news == nil {
		return
	}
	headlines, err := e.news.SearchNews(ctx, newsQuery(m, c.Outcome), e.cfg.NewsLimit)
	if err != nil {
		slog.Warn("enricher: news lookup failed, continuing without headlines",
			"market", c.MarketID,
			"err", err,
		)
		return
	}
	if len(headlines) > e.cfg.NewsLimit {
		headlines = headlines[:e.cfg.NewsLimit]
	}
	c.Headlines = headlines
}

// attachBookPrices replaces the Gamma price with the CLOB entry price when a
// book is available. One batch request covers every candidate.
func (e *Enricher) attachBookPrices(ctx context.Context, cands []domain.ConsensusCandidate) {
	if e.books == nil {
		return
	}
	tokenOf := make(map[int]string)
	var tokenIDs []string
	for i, c := range cands {
		if c.MarketError != "" {
			continue
		}
		if o, ok := c.Market.Outcome(c.Outcome); ok && o.TokenID != "" {
			tokenOf[i] = o.TokenID
			tokenIDs = append(tokenIDs, o.TokenID)
		}
	}
	if len(tokenIDs) == 0 {
		return
	}

	books, err := e.books.FetchOrderBooks(ctx, tokenIDs)
	if err != nil {
		slog.Warn("enricher: order books fetch failed, using gamma prices", "err", err)
		return
	}
	for i, tokenID := range tokenOf {
		if p := books[tokenID].EntryPrice(); p > 0 {
			cands[i].Price = domain.ClampPrice(p)
		}
	}
}

// newsQuery builds the search query from the market title and the outcome.
func newsQuery(m domain.Market, outcome string) string {
	title := m.Title
	if title == "" {
		title = strings.ReplaceAll(m.ID, "-", " ")
	}
	if strings.EqualFold(outcome, "yes") || strings.EqualFold(outcome, "no") {
		return title
	}
	return title + " " + outcome
}
