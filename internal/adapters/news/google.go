package news

// google.go: búsqueda de titulares en Google News RSS.
//
// No requiere API key. La consulta se restringe a los últimos 7 días
// con el operador `when:7d`.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const (
	defaultBase  = "https://news.google.com"
	DefaultLimit = 5

	// Google no documenta límites; 2/s evita el bloqueo por scraping
	ratePerSec = 2
)

const customSource = "source"

// sourceTranslator conserva el <source> de cada item RSS, que el
// traductor por defecto de gofeed descarta.
type sourceTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *sourceTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	raw, ok := feed.(*rss.Feed)
	if !ok {
		return out, nil
	}
	for i, it := range raw.Items {
		if i >= len(out.Items) || it.Source == nil {
			continue
		}
		if out.Items[i].Custom == nil {
			out.Items[i].Custom = map[string]string{}
		}
		out.Items[i].Custom[customSource] = strings.TrimSpace(it.Source.Title)
	}
	return out, nil
}

// GoogleNews implementa ports.NewsSearcher.
type GoogleNews struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewGoogleNews crea el cliente. base vacío usa news.google.com.
func NewGoogleNews(base string) *GoogleNews {
	if base == "" {
		base = defaultBase
	}
	return &GoogleNews{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    strings.TrimRight(base, "/"),
		limiter: rate.NewLimiter(ratePerSec, 2),
	}
}

// SearchNews devuelve hasta limit titulares recientes para query.
// limit <= 0 usa DefaultLimit.
func (g *GoogleNews) SearchNews(ctx context.Context, query string, limit int) ([]domain.Headline, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("news.SearchNews: rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query+" when:7d")
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"/rss/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news.SearchNews: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; copybot)")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news.SearchNews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("news.SearchNews: status %d: %s", resp.StatusCode, string(body))
	}

	// gofeed.Parser guarda estado por parseo: uno por llamada
	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTranslator{}
	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("news.SearchNews: parse feed: %w", err)
	}

	out := make([]domain.Headline, 0, limit)
	for _, it := range feed.Items {
		if len(out) >= limit {
			break
		}
		h := toHeadline(it)
		if h.Title == "" {
			continue
		}
		out = append(out, h)
	}
	slog.Debug("news: search", "query", query, "headlines", len(out))
	return out, nil
}

// toHeadline mapea un item del feed. Google añade " - <medio>" al título;
// se recorta cuando coincide con el <source> del item.
func toHeadline(it *gofeed.Item) domain.Headline {
	h := domain.Headline{
		Title:  strings.TrimSpace(it.Title),
		Source: it.Custom[customSource],
		Link:   strings.TrimSpace(it.Link),
	}
	if h.Source != "" {
		h.Title = strings.TrimSpace(strings.TrimSuffix(h.Title, " - "+h.Source))
	}
	switch {
	case it.PublishedParsed != nil:
		h.PublishedAt = it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		h.PublishedAt = it.UpdatedParsed.UTC()
	}
	return h
}
