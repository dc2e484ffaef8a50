package config

import (
	"fmt"
	"sort"
	"strings"
)

func validate(c *Config) error {
	if err := c.Oracle.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Targets.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (o *OracleConfig) validate() error {
	if strings.TrimSpace(o.BaseURL) == "" {
		return fmt.Errorf("oracle.base_url cannot be empty")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if len(t.NormalizedPairs()) == 0 {
		return fmt.Errorf("trading.pairs requires at least one symbol")
	}
	if t.LeverageDefault <= 0 {
		return fmt.Errorf("trading.leverage_default must be > 0")
	}
	if t.SignalIntervalMinutes <= 0 {
		return fmt.Errorf("trading.signal_interval_minutes must be > 0")
	}
	if t.MonitorIntervalSeconds <= 0 {
		return fmt.Errorf("trading.monitor_interval_seconds must be > 0")
	}
	return nil
}

func (t *TargetsConfig) validate() error {
	if len(t.Percents) == 0 {
		return fmt.Errorf("targets.percents requires at least one level")
	}
	if !sort.Float64sAreSorted(t.Percents) {
		return fmt.Errorf("targets.percents must be ascending")
	}
	for i, p := range t.Percents {
		if p <= 0 {
			return fmt.Errorf("targets.percents[%d] must be > 0", i)
		}
	}
	if t.EntryZonePercent <= 0 || t.EntryZonePercent >= 100 {
		return fmt.Errorf("targets.entry_zone_percent must be in (0, 100)")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.StopLossPercent <= 0 || r.StopLossPercent >= 100 {
		return fmt.Errorf("risk.stop_loss_percent must be in (0, 100)")
	}
	if r.ReversalLongRSI <= 0 || r.ReversalLongRSI >= 100 {
		return fmt.Errorf("risk.reversal_long_rsi must be in (0, 100)")
	}
	if r.ReversalShortRSI <= 0 || r.ReversalShortRSI >= 100 {
		return fmt.Errorf("risk.reversal_short_rsi must be in (0, 100)")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if strings.TrimSpace(tg.BotToken) == "" {
		return fmt.Errorf("notify.telegram.bot_token required when telegram enabled")
	}
	if strings.TrimSpace(tg.ChatID) == "" {
		return fmt.Errorf("notify.telegram.chat_id required when telegram enabled")
	}
	return nil
}
