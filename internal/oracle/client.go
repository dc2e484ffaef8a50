package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"sigtide/internal/config"
)

// analyzeSchema guards the shape of /api/analyze responses before the core
// trusts them. The oracle is an external service; a half-deployed version
// returning direction without indicators must read as "no data".
const analyzeSchema = `{
	"type": "object",
	"required": ["symbol", "indicators"],
	"properties": {
		"symbol": {"type": "string", "minLength": 1},
		"signal_type": {"type": ["string", "null"], "enum": ["LONG", "SHORT", null]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 100},
		"indicators": {
			"type": "object",
			"required": ["price"],
			"properties": {"price": {"type": "number", "exclusiveMinimum": 0}}
		},
		"patterns": {"type": "array"}
	}
}`

// Client wraps the external analytics service REST API.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	analyzeDays int
	schema      *jsonschema.Schema
}

// NewClient constructs an oracle client from configuration.
func NewClient(cfg config.OracleConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("oracle.base_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing oracle.base_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	days := cfg.AnalyzeDays
	if days <= 0 {
		days = 7
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analyze.json", strings.NewReader(analyzeSchema)); err != nil {
		return nil, err
	}
	schema, err := compiler.Compile("analyze.json")
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     parsed,
		httpClient:  &http.Client{Timeout: timeout},
		analyzeDays: days,
		schema:      schema,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Analyze requests a directional reading for symbol. A nil Analysis with nil
// error means the oracle declined to produce a call.
func (c *Client) Analyze(ctx context.Context, symbol string) (*Analysis, error) {
	payload := map[string]any{"symbol": symbol, "days": c.analyzeDays}
	raw, err := c.do(ctx, http.MethodPost, "/api/analyze", payload)
	if err != nil {
		return nil, err
	}
	if err := c.validateAnalyze(raw); err != nil {
		return nil, fmt.Errorf("oracle analyze payload rejected: %w", err)
	}
	parsed := gjson.ParseBytes(raw)
	direction := strings.ToUpper(strings.TrimSpace(parsed.Get("signal_type").String()))
	if direction == "" {
		return nil, nil
	}
	analysis := &Analysis{
		Symbol:     parsed.Get("symbol").String(),
		Direction:  direction,
		Confidence: parsed.Get("confidence").Float(),
		Indicators: indicatorMap(parsed.Get("indicators")),
	}
	parsed.Get("patterns").ForEach(func(_, value gjson.Result) bool {
		if name := strings.TrimSpace(value.Get("type").String()); name != "" {
			analysis.Patterns = append(analysis.Patterns, name)
		}
		return true
	})
	return analysis, nil
}

// Indicators fetches the current indicator snapshot for symbol.
func (c *Client) Indicators(ctx context.Context, symbol string) (*IndicatorSet, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/indicators/"+url.PathEscape(symbol), nil)
	if err != nil {
		return nil, err
	}
	node := gjson.GetBytes(raw, "indicators")
	if !node.IsObject() {
		return nil, fmt.Errorf("oracle indicators payload missing for %s", symbol)
	}
	values := indicatorMap(node)
	set := &IndicatorSet{
		Symbol: symbol,
		Price:  values["price"],
		RSI:    values["rsi"],
		Values: values,
	}
	if set.Price <= 0 {
		return nil, fmt.Errorf("oracle returned no price for %s", symbol)
	}
	return set, nil
}

// HealthCheck reports whether the oracle answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) bool {
	raw, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return false
	}
	return gjson.GetBytes(raw, "status").String() == "healthy"
}

func (c *Client) validateAnalyze(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return c.schema.Validate(doc)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("oracle %s %s: status=%d", method, path, resp.StatusCode)
	}
	return raw, nil
}

func indicatorMap(node gjson.Result) map[string]float64 {
	values := make(map[string]float64)
	node.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Number {
			values[strings.ToLower(key.String())] = value.Float()
		}
		return true
	})
	return values
}
