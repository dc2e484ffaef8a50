package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sigtide/internal/config"
	"sigtide/internal/engine"
	"sigtide/internal/logger"
	"sigtide/internal/scheduler"
	"sigtide/internal/store"
	"sigtide/internal/store/eventlog"
	transporthttp "sigtide/internal/transport/http"
)

// App owns application-level orchestration: config watching, the two
// scheduler loops and the HTTP server.
type App struct {
	watcher *config.Watcher
	store   store.Store
	events  *eventlog.Store
	factory *engine.SignalFactory
	manager *engine.PositionManager
	oracle  engine.Oracle
	http    *transporthttp.Server
}

// Run starts the HTTP server and both scheduler loops, blocking until ctx is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.watcher == nil {
		return fmt.Errorf("app not initialized")
	}
	cfg := a.watcher.Snapshot()

	if !a.oracle.HealthCheck(ctx) {
		logger.Warnf("oracle is not responding; signals may not generate")
	} else {
		logger.Infof("oracle is healthy")
	}
	logger.Infof("watching pairs: %s", strings.Join(cfg.Trading.NormalizedPairs(), ", "))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewIntervalScheduler(ctx, "signals",
			time.Duration(cfg.Trading.SignalIntervalMinutes)*time.Minute)
		sched.RunImmediately = true
		sched.Start(func() {
			a.factory.CheckForSignals(ctx, a.watcher.Snapshot().Trading.NormalizedPairs())
		})
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewIntervalScheduler(ctx, "monitor",
			time.Duration(cfg.Trading.MonitorIntervalSeconds)*time.Second)
		sched.Start(func() {
			a.manager.MonitorOpenPositions(ctx)
		})
		return nil
	})

	err := group.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			logger.Errorf("closing event journal failed: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Errorf("closing store failed: %v", err)
		}
	}
}
