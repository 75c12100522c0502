// Package guardian wires watching, debouncing, healing, documentation
// refresh, and notification into one long-running daemon.
//
// The guardian:
// 1. Watches a source tree for changes to matching files
// 2. Coalesces rapid edits into one pending entry per file
// 3. Heals each file once its debounce window has elapsed
// 4. Refreshes documentation and notifies after each heal
// 5. Handles graceful shutdown
package guardian

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pymend/pymend/internal/coalesce"
	"github.com/pymend/pymend/internal/dashboard"
	"github.com/pymend/pymend/internal/docs"
	"github.com/pymend/pymend/internal/heal"
	"github.com/pymend/pymend/internal/history"
	"github.com/pymend/pymend/internal/notify"
	"github.com/pymend/pymend/internal/watcher"
)

// Config holds configuration for the guardian loop.
type Config struct {
	// Debounce is the quiet period a file must see before it is healed.
	// Every new event resets the file's window.
	Debounce time.Duration

	// PollInterval is how often the queue is checked for due files.
	PollInterval time.Duration

	// HealTimeout bounds one file's pipeline run, formatter included.
	HealTimeout time.Duration

	// Logger for guardian activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce:     1500 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		HealTimeout:  30 * time.Second,
		Logger:       log.New(os.Stderr, "[guardian] ", log.LstdFlags),
	}
}

// Guardian orchestrates the watch-debounce-heal loop.
type Guardian struct {
	watch    *watcher.Watcher
	queue    *coalesce.Coalescer
	pipeline *heal.Pipeline
	notifier notify.Notifier
	config   *Config

	// Optional collaborators, attached before Start.
	store     *history.Store
	refresher *docs.Refresher
	events    *dashboard.Handler

	// healed maps path to the content the last heal wrote back. The
	// write-back itself raises a watcher event; without this the
	// guardian would chase its own tail, re-healing every file once per
	// debounce window. Accessed only from the processQueue goroutine.
	healed map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a guardian with default configuration.
func New(watch *watcher.Watcher, pipeline *heal.Pipeline, notifier notify.Notifier) (*Guardian, error) {
	return NewWithConfig(watch, pipeline, notifier, DefaultConfig())
}

// NewWithConfig creates a guardian with custom configuration.
func NewWithConfig(watch *watcher.Watcher, pipeline *heal.Pipeline, notifier notify.Notifier, config *Config) (*Guardian, error) {
	if watch == nil {
		return nil, fmt.Errorf("watcher cannot be nil")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Guardian{
		watch:    watch,
		queue:    coalesce.New(),
		pipeline: pipeline,
		notifier: notifier,
		config:   config,
		healed:   make(map[string]string),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// AttachHistory records heal outcomes to the given store.
func (g *Guardian) AttachHistory(store *history.Store) {
	g.store = store
}

// AttachDocs refreshes documentation after successful heals.
func (g *Guardian) AttachDocs(refresher *docs.Refresher) {
	g.refresher = refresher
}

// AttachDashboard broadcasts guardian events to dashboard clients.
func (g *Guardian) AttachDashboard(events *dashboard.Handler) {
	g.events = events
}

// PendingCount reports how many files are waiting out their debounce
// window.
func (g *Guardian) PendingCount() int {
	return g.queue.Len()
}

// Start begins the guardian's operation.
//
// The guardian will:
// 1. Start the file watcher
// 2. Queue change events with debouncing
// 3. Heal files whose quiet period has elapsed
//
// This blocks until ctx is cancelled or Stop is called.
func (g *Guardian) Start(ctx context.Context) error {
	g.config.Logger.Println("Starting guardian")

	if !g.pipeline.Formatter().Available() {
		g.config.Logger.Println("Warning: formatter not found on PATH, formatting will be skipped")
	}

	if err := g.watch.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	g.wg.Add(2)
	go g.watchFileEvents()
	go g.processQueue()

	select {
	case <-ctx.Done():
		g.config.Logger.Println("Shutdown signal received")
		return g.Stop()
	case <-g.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the guardian. Files still inside their
// debounce window are dropped; the next daemon run picks them up on
// their next save.
func (g *Guardian) Stop() error {
	g.config.Logger.Println("Stopping guardian")

	g.cancel()

	if err := g.watch.Stop(); err != nil {
		g.config.Logger.Printf("Error stopping watcher: %v", err)
	}

	g.wg.Wait()

	g.config.Logger.Println("Guardian stopped")
	return nil
}

// watchFileEvents feeds watcher events into the debounce queue.
func (g *Guardian) watchFileEvents() {
	defer g.wg.Done()

	for {
		select {
		case <-g.ctx.Done():
			return

		case event, ok := <-g.watch.Events():
			if !ok {
				return
			}
			g.queue.Record(event.Path, time.Now())
			if g.events != nil {
				g.events.OnFileQueued(event.Path)
			}

		case err, ok := <-g.watch.Errors():
			if !ok {
				return
			}
			g.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// processQueue polls for due files and heals them one at a time.
func (g *Guardian) processQueue() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return

		case <-ticker.C:
			for _, path := range g.queue.DrainElapsed(time.Now(), g.config.Debounce) {
				g.healPath(path)
			}
		}
	}
}

// healPath runs one file through the pipeline and its follow-ups. A
// failure, or even a panic, for one file must never stop the loop for
// the others, so everything is contained here.
func (g *Guardian) healPath(path string) {
	defer func() {
		if r := recover(); r != nil {
			g.config.Logger.Printf("Panic healing %s: %v", path, r)
			g.notifier.Emit(fmt.Sprintf("Error processing %s: internal error", path), true)
		}
	}()

	if last, ok := g.healed[path]; ok {
		if raw, err := os.ReadFile(path); err == nil && string(raw) == last {
			return
		}
	}

	ctx, cancel := context.WithTimeout(g.ctx, g.config.HealTimeout)
	defer cancel()

	g.config.Logger.Printf("Healing %s", path)
	res := g.pipeline.Run(ctx, path)

	g.recordHistory(res)

	if !res.Succeeded {
		g.notifier.Emit(fmt.Sprintf("Error processing %s: %v", path, res.Err), true)
		if g.events != nil {
			g.events.OnHealFailed(path, string(res.FailedStage), res.Err)
		}
		return
	}

	g.healed[path] = res.Final

	for _, warning := range res.Warnings {
		g.config.Logger.Printf("Warning for %s: %s", path, warning)
	}

	g.refreshDocs(ctx, path)

	g.notifier.Emit(fmt.Sprintf("Processed %s", path), false)
	if g.events != nil {
		g.events.OnHealComplete(path, res.Duration, res.Warnings)
	}
}

// refreshDocs regenerates documentation for a healed file and announces
// the refresh with its own non-error line; the terminal "Processed"
// notification still follows. Doc failures are logged, not surfaced;
// the heal already succeeded.
func (g *Guardian) refreshDocs(ctx context.Context, path string) {
	if g.refresher == nil {
		return
	}
	if err := g.refresher.Run(ctx, path); err != nil {
		g.config.Logger.Printf("Docs refresh failed for %s: %v", path, err)
		return
	}
	g.notifier.Emit(fmt.Sprintf("Updated docs for %s", filepath.Base(path)), false)
	if g.events != nil {
		g.events.OnDocsRefreshed(path)
	}
}

// recordHistory persists the run outcome. Best effort; a history write
// failure never affects healing.
func (g *Guardian) recordHistory(res heal.Result) {
	if g.store == nil {
		return
	}

	rec := &history.Record{
		Path:        res.Path,
		StartedAt:   time.Now().Add(-res.Duration),
		Duration:    res.Duration,
		Succeeded:   res.Succeeded,
		FailedStage: string(res.FailedStage),
		BytesBefore: len(res.Original),
		BytesAfter:  len(res.Final),
		Warnings:    res.Warnings,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := g.store.Insert(ctx, rec); err != nil {
		g.config.Logger.Printf("Failed to record heal history for %s: %v", res.Path, err)
	}
}
