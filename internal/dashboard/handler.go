package dashboard

import (
	"log"
	"sync"
	"time"
)

// Handler bridges guardian callbacks to dashboard broadcasts and keeps
// running heal statistics for the stats feed.
type Handler struct {
	server *Server
	logger *log.Logger

	statsMu sync.Mutex
	stats   StatsData
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		server: server,
		logger: logger,
	}
}

// OnFileQueued handles a change entering the debounce queue.
func (h *Handler) OnFileQueued(path string) {
	h.server.Publish(EventFileQueued, FileQueuedData{Path: path})
}

// OnHealComplete handles a successful heal.
func (h *Handler) OnHealComplete(path string, duration time.Duration, warnings []string) {
	h.logger.Printf("Healed %s in %v", path, duration)

	h.statsMu.Lock()
	h.stats.Total++
	h.stats.Succeeded++
	h.statsMu.Unlock()

	h.server.Publish(EventHealComplete, HealCompleteData{
		Path:       path,
		DurationMs: duration.Milliseconds(),
		Warnings:   warnings,
	})
	h.broadcastStats()
}

// OnHealFailed handles an aborted heal.
func (h *Handler) OnHealFailed(path, failedStage string, healErr error) {
	h.logger.Printf("Heal failed for %s at %s: %v", path, failedStage, healErr)

	h.statsMu.Lock()
	h.stats.Total++
	h.stats.Failed++
	h.statsMu.Unlock()

	errMsg := ""
	if healErr != nil {
		errMsg = healErr.Error()
	}
	h.server.Publish(EventHealFailed, HealFailedData{
		Path:        path,
		FailedStage: failedStage,
		Error:       errMsg,
	})
	h.broadcastStats()
}

// OnDocsRefreshed handles a regenerated documentation manifest.
func (h *Handler) OnDocsRefreshed(path string) {
	h.server.Publish(EventDocsRefreshed, DocsRefreshedData{Path: path})
}

// SeedStats initializes counters from persisted history, so a restarted
// guardian reports lifetime totals instead of starting from zero.
func (h *Handler) SeedStats(total, succeeded, failed int) {
	h.statsMu.Lock()
	h.stats = StatsData{Total: total, Succeeded: succeeded, Failed: failed}
	h.statsMu.Unlock()

	h.broadcastStats()
}

// GetStats returns a copy of the current statistics.
func (h *Handler) GetStats() StatsData {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// broadcastStats sends current statistics to all clients.
func (h *Handler) broadcastStats() {
	h.statsMu.Lock()
	stats := h.stats
	h.statsMu.Unlock()

	h.server.Publish(EventStats, stats)
}
