package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/llm"
	"github.com/alejandrodnm/copybot/internal/domain"
)

var req = domain.RationaleRequest{System: "policy", Prompt: "candidate"}

func TestNew_SelectsProvider(t *testing.T) {
	p, err := llm.New(llm.Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, p.Name())

	p, err = llm.New(llm.Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, p.Name())

	p, err = llm.New(llm.Config{})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOffline, p.Name())
}

func TestNew_Errors(t *testing.T) {
	_, err := llm.New(llm.Config{Provider: "openai"})
	require.Error(t, err)
	_, err = llm.New(llm.Config{Provider: "anthropic"})
	require.Error(t, err)
	_, err = llm.New(llm.Config{Provider: "gemini", APIKey: "k"})
	require.Error(t, err)
}

func TestOpenAI_RequestTradeRationale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "json_object", body["response_format"].(map[string]any)["type"])

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"action\":\"skip\"}"}}]}`))
	}))
	defer srv.Close()

	p := llm.NewOpenAI(llm.Config{APIKey: "sk-test", BaseURL: srv.URL})
	out, err := p.RequestTradeRationale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"skip"}`, out)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := llm.NewOpenAI(llm.Config{APIKey: "k", BaseURL: srv.URL}).RequestTradeRationale(context.Background(), req)
	require.Error(t, err)
}

func TestAnthropic_RequestTradeRationale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
		system := body["system"].([]any)
		require.Len(t, system, 1)
		assert.Equal(t, "policy", system[0].(map[string]any)["text"])

		w.Write([]byte(`{"content":[{"type":"text","text":"{\"action\":"},{"type":"text","text":"\"trade\"}"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p := llm.NewAnthropic(llm.Config{APIKey: "ak-test", BaseURL: srv.URL})
	out, err := p.RequestTradeRationale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"trade"}`, out)
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := llm.NewOpenAI(llm.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 5 * time.Second})
	out, err := p.RequestTradeRationale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropic_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	_, err := llm.NewAnthropic(llm.Config{APIKey: "bad", BaseURL: srv.URL}).RequestTradeRationale(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func offlineAnswer(t *testing.T, prompt string) map[string]any {
	t.Helper()
	out, err := llm.NewOffline().RequestTradeRationale(context.Background(), domain.RationaleRequest{Prompt: prompt})
	require.NoError(t, err)
	var ans map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &ans))
	return ans
}

func TestOffline_TradesFavoriteConsensus(t *testing.T) {
	ans := offlineAnswer(t, "Current price: 0.620 (implied)\nResolves in: 72.0 hours (2026-03-04)\n\nCONSENSUS: 3 traders, agreement score 1.500\n")
	assert.Equal(t, "trade", ans["action"])
	// 0.55 + 0.10 + 0.05 + 0.05
	assert.InDelta(t, 0.75, ans["confidence"].(float64), 1e-9)
	assert.Len(t, ans["strategies"], 3)
}

func TestOffline_SkipsLongshotsAndFarMarkets(t *testing.T) {
	ans := offlineAnswer(t, "Current price: 0.300\nCONSENSUS: 5 traders, agreement score 2.000\n")
	assert.Equal(t, "skip", ans["action"])

	ans = offlineAnswer(t, "Current price: 0.600\nResolves in: 2000.0 hours\nCONSENSUS: 5 traders, agreement score 2.000\n")
	assert.Equal(t, "skip", ans["action"])

	ans = offlineAnswer(t, "CONSENSUS: 5 traders, agreement score 2.000\n")
	assert.Equal(t, "skip", ans["action"])
}

func TestOffline_Deterministic(t *testing.T) {
	prompt := "Current price: 0.550\nCONSENSUS: 2 traders, agreement score 0.800\n"
	assert.Equal(t, offlineAnswer(t, prompt), offlineAnswer(t, prompt))
}
