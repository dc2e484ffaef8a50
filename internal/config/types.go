package config

import "strings"

// Config is the top-level configuration carrier for sigtide.
type Config struct {
	App     AppConfig     `toml:"app"`
	Oracle  OracleConfig  `toml:"oracle"`
	Trading TradingConfig `toml:"trading"`
	Targets TargetsConfig `toml:"targets"`
	Risk    RiskConfig    `toml:"risk"`
	Notify  NotifyConfig  `toml:"notify"`
	Store   StoreConfig   `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// OracleConfig describes the external analytics service.
type OracleConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AnalyzeDays    int    `toml:"analyze_days"`
}

// TradingConfig controls which instruments are scanned and how often.
type TradingConfig struct {
	Pairs                  []string `toml:"pairs"`
	QuoteAsset             string   `toml:"quote_asset"`
	LeverageDefault        int      `toml:"leverage_default"`
	SignalIntervalMinutes  int      `toml:"signal_interval_minutes"`
	MonitorIntervalSeconds int      `toml:"monitor_interval_seconds"`
	PairDelaySeconds       int      `toml:"pair_delay_seconds"`
}

// TargetsConfig holds the take-profit ladder and entry zone width.
type TargetsConfig struct {
	Percents         []float64 `toml:"percents"`
	EntryZonePercent float64   `toml:"entry_zone_percent"`
}

type RiskConfig struct {
	StopLossPercent         float64 `toml:"stop_loss_percent"`
	DedupWindowMinutes      int     `toml:"dedup_window_minutes"`
	ReversalLongRSI         float64 `toml:"reversal_long_rsi"`
	ReversalShortRSI        float64 `toml:"reversal_short_rsi"`
	ReversalCooldownSeconds int     `toml:"reversal_cooldown_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled      bool   `toml:"enabled"`
	BotToken     string `toml:"bot_token"`
	ChatID       string `toml:"chat_id"`
	TemplatePath string `toml:"template_path"`
}

type StoreConfig struct {
	DBPath      string `toml:"db_path"`
	EventDBPath string `toml:"event_db_path"`
}

// NormalizedPairs returns the configured base symbols upper-cased with empties dropped.
func (t TradingConfig) NormalizedPairs() []string {
	out := make([]string, 0, len(t.Pairs))
	for _, p := range t.Pairs {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// keySet tracks which config paths were explicitly set in the file.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
