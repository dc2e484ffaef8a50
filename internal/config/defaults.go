package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":4000"
	defaultOracleBaseURL   = "http://localhost:5000"
	defaultOracleTimeout   = 30
	defaultOracleDays      = 7
	defaultQuoteAsset      = "USDT"
	defaultLeverage        = 20
	defaultSignalInterval  = 5
	defaultMonitorInterval = 60
	defaultPairDelay       = 2
	defaultEntryZonePct    = 2.0
	defaultStopLossPct     = 5.0
	defaultDedupMinutes    = 60
	defaultReversalLong    = 55.0
	defaultReversalShort   = 45.0
	defaultDBPath          = "data/sigtide.db"
	defaultEventDBPath     = "data/events.db"
)

var defaultPairs = []string{"BTC", "ETH", "SOL", "BNB", "ADA"}

// defaultTargetPercents is the take-profit ladder applied when none is configured.
var defaultTargetPercents = []float64{2.5, 5.2, 12.6, 17.5, 22.1}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Oracle.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Targets.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (o *OracleConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("oracle.base_url", &o.BaseURL, defaultOracleBaseURL),
		fieldDefault{
			key:   "oracle.timeout_seconds",
			need:  func() bool { return o.TimeoutSeconds <= 0 },
			apply: func() { o.TimeoutSeconds = defaultOracleTimeout },
		},
		fieldDefault{
			key:   "oracle.analyze_days",
			need:  func() bool { return o.AnalyzeDays <= 0 },
			apply: func() { o.AnalyzeDays = defaultOracleDays },
		},
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.quote_asset", &t.QuoteAsset, defaultQuoteAsset),
		fieldDefault{
			key:   "trading.pairs",
			need:  func() bool { return len(t.NormalizedPairs()) == 0 },
			apply: func() { t.Pairs = append([]string(nil), defaultPairs...) },
		},
		fieldDefault{
			key:   "trading.leverage_default",
			need:  func() bool { return t.LeverageDefault <= 0 },
			apply: func() { t.LeverageDefault = defaultLeverage },
		},
		fieldDefault{
			key:   "trading.signal_interval_minutes",
			need:  func() bool { return t.SignalIntervalMinutes <= 0 },
			apply: func() { t.SignalIntervalMinutes = defaultSignalInterval },
		},
		fieldDefault{
			key:   "trading.monitor_interval_seconds",
			need:  func() bool { return t.MonitorIntervalSeconds <= 0 },
			apply: func() { t.MonitorIntervalSeconds = defaultMonitorInterval },
		},
		fieldDefault{
			key:   "trading.pair_delay_seconds",
			need:  func() bool { return t.PairDelaySeconds <= 0 },
			apply: func() { t.PairDelaySeconds = defaultPairDelay },
		},
	)
	if t.PairDelaySeconds < 0 {
		t.PairDelaySeconds = 0
	}
	t.QuoteAsset = strings.ToUpper(strings.TrimSpace(t.QuoteAsset))
}

func (t *TargetsConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "targets.percents",
			need:  func() bool { return len(t.Percents) == 0 },
			apply: func() { t.Percents = append([]float64(nil), defaultTargetPercents...) },
		},
		fieldDefault{
			key:   "targets.entry_zone_percent",
			need:  func() bool { return t.EntryZonePercent <= 0 },
			apply: func() { t.EntryZonePercent = defaultEntryZonePct },
		},
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.stop_loss_percent",
			need:  func() bool { return r.StopLossPercent <= 0 },
			apply: func() { r.StopLossPercent = defaultStopLossPct },
		},
		fieldDefault{
			key:   "risk.dedup_window_minutes",
			need:  func() bool { return r.DedupWindowMinutes <= 0 },
			apply: func() { r.DedupWindowMinutes = defaultDedupMinutes },
		},
		fieldDefault{
			key:   "risk.reversal_long_rsi",
			need:  func() bool { return r.ReversalLongRSI <= 0 },
			apply: func() { r.ReversalLongRSI = defaultReversalLong },
		},
		fieldDefault{
			key:   "risk.reversal_short_rsi",
			need:  func() bool { return r.ReversalShortRSI <= 0 },
			apply: func() { r.ReversalShortRSI = defaultReversalShort },
		},
	)
	if r.ReversalCooldownSeconds < 0 {
		r.ReversalCooldownSeconds = 0
	}
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.db_path", &s.DBPath, defaultDBPath),
		stringFieldDefault("store.event_db_path", &s.EventDBPath, defaultEventDBPath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
