package transporthttp

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sigtide/internal/engine"
	"sigtide/internal/store"
	"sigtide/internal/store/eventlog"
	"sigtide/internal/types"
)

// Router exposes the read/aggregate API over the repositories plus the
// manual open/close surface of the position manager.
type Router struct {
	Signals   store.SignalRepository
	Positions store.PositionRepository
	Manager   *engine.PositionManager
	Oracle    engine.Oracle
	Events    *eventlog.Store
	Pairs     func() []string
	startedAt time.Time
}

func NewRouter(signals store.SignalRepository, positions store.PositionRepository, manager *engine.PositionManager, oracle engine.Oracle, events *eventlog.Store, pairs func() []string) *Router {
	return &Router{
		Signals:   signals,
		Positions: positions,
		Manager:   manager,
		Oracle:    oracle,
		Events:    events,
		Pairs:     pairs,
		startedAt: time.Now(),
	}
}

// Register mounts the API routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/signals/active", r.handleActiveSignals)
	group.GET("/signals/history", r.handleSignalHistory)
	group.GET("/trades", r.handleTrades)
	group.POST("/trades/record", r.handleRecordTrade)
	group.GET("/performance/overall", r.handlePerformance)
	group.GET("/market/live", r.handleMarketLive)
	group.GET("/status", r.handleStatus)
	if r.Events != nil {
		group.GET("/events", r.handleEvents)
	}
}

func (r *Router) handleActiveSignals(c *gin.Context) {
	signals, err := r.Signals.ListByStatus(c.Request.Context(), types.SignalStatusActive, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(signals), "data": signals})
}

func (r *Router) handleSignalHistory(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 50)
	signals, err := r.Signals.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(signals), "data": signals})
}

func (r *Router) handleTrades(c *gin.Context) {
	ctx := c.Request.Context()
	status := strings.TrimSpace(c.Query("status"))
	var (
		positions []types.Position
		err       error
	)
	if status != "" {
		positions, err = r.Positions.ListByStatus(ctx, types.PositionStatus(status), 100)
	} else {
		positions, err = r.Positions.ListRecent(ctx, 100)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(positions), "data": positions})
}

func (r *Router) handleRecordTrade(c *gin.Context) {
	var req RecordTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "open":
		sig, err := r.Signals.FindByID(ctx, req.SignalID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if sig == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "signal not found"})
			return
		}
		pos, err := r.Manager.Open(ctx, sig, req.Price)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": pos})
	case "close":
		reason := types.ExitReason(strings.TrimSpace(req.Reason))
		if reason == "" {
			reason = types.ExitReasonManual
		}
		pos, err := r.Manager.Close(ctx, req.TradeID, req.Price, reason)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if pos == nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "position not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": pos})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "action must be open or close"})
	}
}

func (r *Router) handlePerformance(c *gin.Context) {
	closed, err := r.Positions.ListByStatus(c.Request.Context(), types.PositionStatusClosed, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": buildPerformance(closed)})
}

func buildPerformance(closed []types.Position) PerformanceReport {
	report := PerformanceReport{TotalTrades: len(closed)}
	if len(closed) == 0 {
		return report
	}
	var winSum, lossSum float64
	var wins, losses int
	report.BestTrade = closed[0].Profit
	report.WorstTrade = closed[0].Profit
	for _, p := range closed {
		report.TotalProfit += p.Profit
		switch {
		case p.Profit > 0:
			wins++
			winSum += p.Profit
		case p.Profit < 0:
			losses++
			lossSum += p.Profit
		}
		if p.Profit > report.BestTrade {
			report.BestTrade = p.Profit
		}
		if p.Profit < report.WorstTrade {
			report.WorstTrade = p.Profit
		}
	}
	report.WinRate = 100 * float64(wins) / float64(len(closed))
	if wins > 0 {
		report.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		report.AvgLoss = lossSum / float64(losses)
	}
	if report.AvgLoss != 0 {
		report.ProfitFactor = report.AvgWin / -report.AvgLoss
	}
	return report
}

func (r *Router) handleMarketLive(c *gin.Context) {
	ctx := c.Request.Context()
	var symbols []string
	if raw := strings.TrimSpace(c.Query("pairs")); raw != "" {
		symbols = strings.Split(raw, ",")
	} else if r.Pairs != nil {
		symbols = r.Pairs()
	}
	results := make(map[string]map[string]float64)
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		ind, err := r.Oracle.Indicators(ctx, symbol)
		if err != nil {
			continue
		}
		results[symbol] = ind.Values
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": results})
}

func (r *Router) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	healthy := r.Oracle.HealthCheck(ctx)
	activeSignals, err := r.Signals.CountByStatus(ctx, types.SignalStatusActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	openTrades, err := r.Positions.CountByStatus(ctx, types.PositionStatusOpen)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	report := StatusReport{
		Status:        "running",
		Oracle:        "healthy",
		ActiveSignals: activeSignals,
		OpenTrades:    openTrades,
		UptimeSeconds: time.Since(r.startedAt).Seconds(),
	}
	if !healthy {
		report.Status = "degraded"
		report.Oracle = "down"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

func (r *Router) handleEvents(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 100)
	records, err := r.Events.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(records), "data": records})
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
