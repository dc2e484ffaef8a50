package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtide/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(config.OracleConfig{BaseURL: srv.URL, TimeoutSeconds: 5, AnalyzeDays: 7})
	require.NoError(t, err)
	return client, srv
}

func TestAnalyzeParsesSignal(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "BTC",
			"signal_type": "long",
			"confidence": 78.5,
			"indicators": {"price": 64250.5, "RSI": 28.4, "macd": -12.1, "note": "ignored"},
			"patterns": [{"type": "double_bottom"}, {"type": ""}]
		}`))
	}))

	analysis, err := client.Analyze(context.Background(), "BTC")
	require.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, "BTC", gotBody["symbol"])
	assert.Equal(t, float64(7), gotBody["days"])
	assert.Equal(t, "BTC", analysis.Symbol)
	assert.Equal(t, "LONG", analysis.Direction)
	assert.Equal(t, 78.5, analysis.Confidence)
	assert.Equal(t, 64250.5, analysis.Price())
	assert.Equal(t, 28.4, analysis.Indicators["rsi"])
	assert.Equal(t, []string{"double_bottom"}, analysis.Patterns)
	assert.True(t, analysis.HasDirection())
}

func TestAnalyzeNoSignal(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"symbol": "BTC", "signal_type": null, "indicators": {"price": 64250.5}}`))
	}))

	analysis, err := client.Analyze(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Nil(t, analysis)
}

func TestAnalyzeRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing indicators", `{"symbol": "BTC", "signal_type": "LONG"}`},
		{"missing price", `{"symbol": "BTC", "indicators": {"rsi": 30}}`},
		{"zero price", `{"symbol": "BTC", "indicators": {"price": 0}}`},
		{"bad direction", `{"symbol": "BTC", "signal_type": "UP", "indicators": {"price": 10}}`},
		{"not json", `<html>busy</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			_, err := client.Analyze(context.Background(), "BTC")
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := client.Analyze(context.Background(), "BTC")
	assert.Error(t, err)
}

func TestIndicators(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/indicators/BTC", r.URL.Path)
		w.Write([]byte(`{"symbol": "BTC", "indicators": {"price": 64000, "rsi": 61.2, "volume": 1234.5}}`))
	}))

	set, err := client.Indicators(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "BTC", set.Symbol)
	assert.Equal(t, 64000.0, set.Price)
	assert.Equal(t, 61.2, set.RSI)
	assert.Equal(t, 1234.5, set.Values["volume"])
}

func TestIndicatorsMissingPrice(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"symbol": "BTC", "indicators": {"rsi": 61.2}}`))
	}))
	_, err := client.Indicators(context.Background(), "BTC")
	assert.Error(t, err)
}

func TestIndicatorsMissingObject(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"symbol": "BTC"}`))
	}))
	_, err := client.Indicators(context.Background(), "BTC")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	healthy := true
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if healthy {
			w.Write([]byte(`{"status": "healthy"}`))
			return
		}
		w.Write([]byte(`{"status": "degraded"}`))
	}))

	assert.True(t, client.HealthCheck(context.Background()))
	healthy = false
	assert.False(t, client.HealthCheck(context.Background()))
}

func TestHealthCheckDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client, err := NewClient(config.OracleConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	srv.Close()
	assert.False(t, client.HealthCheck(context.Background()))
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	_, err := NewClient(config.OracleConfig{})
	assert.Error(t, err)
}
