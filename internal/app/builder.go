package app

import (
	"fmt"
	"time"

	"sigtide/internal/config"
	"sigtide/internal/engine"
	"sigtide/internal/logger"
	"sigtide/internal/notifier"
	"sigtide/internal/oracle"
	"sigtide/internal/store/eventlog"
	"sigtide/internal/store/gormstore"
	transporthttp "sigtide/internal/transport/http"
)

// NewApp builds the application from the config file at cfgPath. The file
// stays watched so pair-list edits apply without a restart.
func NewApp(cfgPath string) (*App, error) {
	watcher, err := config.NewWatcher(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg := watcher.Snapshot()
	logger.SetLevel(cfg.App.LogLevel)

	oracleClient, err := oracle.NewClient(cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("building oracle client failed: %w", err)
	}

	st, err := gormstore.NewGormStore(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store failed: %w", err)
	}
	events, err := eventlog.Open(cfg.Store.EventDBPath)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("opening event journal failed: %w", err)
	}

	templates, err := notifier.LoadTemplates(cfg.Notify.Telegram.TemplatePath)
	if err != nil {
		st.Close()
		events.Close()
		return nil, err
	}
	format := notifier.NewFormatter(templates)
	var sink notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		sink = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	} else {
		logger.Warnf("telegram not configured, notifications go to the log")
		sink = notifier.LogNotifier{}
	}

	settings := buildSettings(cfg)
	factory := engine.NewSignalFactory(oracleClient, st.Signals(), sink, format, events, settings)
	manager := engine.NewPositionManager(oracleClient, st.Positions(), st.Signals(), sink, format, events, settings)

	routes := transporthttp.NewRouter(st.Signals(), st.Positions(), manager, oracleClient, events, func() []string {
		return watcher.Snapshot().Trading.NormalizedPairs()
	})
	httpServer, err := transporthttp.NewServer(transporthttp.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Routes: routes,
	})
	if err != nil {
		st.Close()
		events.Close()
		return nil, err
	}

	return &App{
		watcher: watcher,
		store:   st,
		events:  events,
		factory: factory,
		manager: manager,
		oracle:  oracleClient,
		http:    httpServer,
	}, nil
}

func buildSettings(cfg *config.Config) engine.Settings {
	return engine.Settings{
		QuoteAsset:       cfg.Trading.QuoteAsset,
		LeverageDefault:  cfg.Trading.LeverageDefault,
		TargetPercents:   cfg.Targets.Percents,
		EntryZonePercent: cfg.Targets.EntryZonePercent,
		StopLossPercent:  cfg.Risk.StopLossPercent,
		DedupWindow:      time.Duration(cfg.Risk.DedupWindowMinutes) * time.Minute,
		ReversalLongRSI:  cfg.Risk.ReversalLongRSI,
		ReversalShortRSI: cfg.Risk.ReversalShortRSI,
		ReversalCooldown: time.Duration(cfg.Risk.ReversalCooldownSeconds) * time.Second,
		PairDelay:        time.Duration(cfg.Trading.PairDelaySeconds) * time.Second,
	}
}
