package news_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/news"
)

func rss(n int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>q</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `<item><title>Headline %d - Reuters</title><link>https://example.com/%d</link>`+
			`<pubDate>Mon, 02 Mar 2026 15:04:05 GMT</pubDate><source url="https://example.com">Reuters</source></item>`, i, i)
	}
	sb.WriteString(`</channel></rss>`)
	return sb.String()
}

func TestSearchNews_ParsesAndLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rss/search", r.URL.Path)
		assert.Equal(t, "fed rate cut when:7d", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss(8)))
	}))
	defer srv.Close()

	headlines, err := news.NewGoogleNews(srv.URL).SearchNews(context.Background(), "fed rate cut", 0)
	require.NoError(t, err)
	require.Len(t, headlines, news.DefaultLimit)
	assert.Equal(t, "Headline 0", headlines[0].Title)
	assert.Equal(t, "Reuters", headlines[0].Source)
	assert.Equal(t, 2026, headlines[0].PublishedAt.Year())
}

func TestSearchNews_EmptyQuery(t *testing.T) {
	headlines, err := news.NewGoogleNews("http://127.0.0.1:1").SearchNews(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, headlines)
}

func TestSearchNews_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := news.NewGoogleNews(srv.URL).SearchNews(context.Background(), "btc", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSearchNews_MalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<rss><channel><item>"))
	}))
	defer srv.Close()

	_, err := news.NewGoogleNews(srv.URL).SearchNews(context.Background(), "btc", 3)
	require.Error(t, err)
}

func TestSearchNews_AtomFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>q</title>
<entry><title>ETF approved</title><link href="https://example.com/etf"/><updated>2026-03-02T15:04:05Z</updated></entry>
</feed>`))
	}))
	defer srv.Close()

	headlines, err := news.NewGoogleNews(srv.URL).SearchNews(context.Background(), "btc etf", 3)
	require.NoError(t, err)
	require.Len(t, headlines, 1)
	assert.Equal(t, "ETF approved", headlines[0].Title)
	assert.Equal(t, "https://example.com/etf", headlines[0].Link)
	assert.Empty(t, headlines[0].Source)
	assert.Equal(t, 2026, headlines[0].PublishedAt.Year())
}
