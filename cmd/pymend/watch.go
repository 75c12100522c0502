package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pymend/pymend/internal/config"
	"github.com/pymend/pymend/internal/dashboard"
	"github.com/pymend/pymend/internal/docs"
	"github.com/pymend/pymend/internal/guardian"
	"github.com/pymend/pymend/internal/heal"
	"github.com/pymend/pymend/internal/history"
	"github.com/pymend/pymend/internal/notify"
	"github.com/pymend/pymend/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Start the guardian daemon on a source tree",
	Long: `Start watching a directory tree and heal matching files as they change.

Each save starts (or restarts) the file's debounce window; once the file
has been quiet for the configured period it runs through the heal
pipeline:

1. Syntax patching: missing colons after block keywords, smart quotes
2. Structural rewriting: deprecated calls, missing self parameters
3. External formatting via the configured formatter

Files that cannot be confidently repaired are reported and left
untouched. Press Ctrl+C to stop.

Example usage:
  pymend watch                   # Watch the configured root (default .)
  pymend watch ./src             # Watch a specific tree
  pymend watch --dashboard       # Also serve WebSocket heal events`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Root = args[0]
		}
		if cmd.Flags().Changed("dashboard") {
			enabled, _ := cmd.Flags().GetBool("dashboard")
			cfg.Dashboard.Enabled = enabled
		}
		if cmd.Flags().Changed("docs-dir") {
			cfg.Docs.Dir, _ = cmd.Flags().GetString("docs-dir")
		}

		return runWatch(cfg)
	},
}

func init() {
	watchCmd.Flags().Bool("dashboard", false, "Serve heal events over WebSocket")
	watchCmd.Flags().String("docs-dir", "", "Write outline manifests to this directory")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cfg *config.Config) error {
	logger, closeLog := buildLogger(cfg.Log)
	defer closeLog()

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}

	w, err := watcher.New(root, cfg.Suffix)
	if err != nil {
		return err
	}

	pipeline := heal.NewPipeline(&heal.Formatter{
		Command: cfg.Formatter.Command,
		Timeout: cfg.Formatter.Timeout,
	})

	notifier := notify.NewConsole(os.Stdout)

	g, err := guardian.NewWithConfig(w, pipeline, notifier, &guardian.Config{
		Debounce:     cfg.Debounce,
		PollInterval: cfg.PollInterval,
		HealTimeout:  cfg.HealTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()
		if err := store.InitSchema(); err != nil {
			return fmt.Errorf("initialize history store: %w", err)
		}
		g.AttachHistory(store)
	}

	if cfg.Docs.Dir != "" {
		refresher := &docs.Refresher{OutputDir: cfg.Docs.Dir}
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			refresher.Summarizer = docs.NewClaudeSummarizer(key, cfg.Docs.SummaryModel)
		}
		g.AttachDocs(refresher)
	}

	var server *dashboard.Server
	if cfg.Dashboard.Enabled {
		server = dashboard.NewServer(&dashboard.Config{
			Port:   cfg.Dashboard.Port,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			return fmt.Errorf("start dashboard: %w", err)
		}
		defer func() {
			if err := server.Stop(); err != nil {
				logger.Printf("Dashboard shutdown error: %v", err)
			}
		}()

		handler := dashboard.NewHandler(server, logger)
		if store != nil {
			if stats, err := store.GetStats(context.Background()); err == nil {
				handler.SeedStats(stats.Total, stats.Succeeded, stats.Failed)
			}
		}
		g.AttachDashboard(handler)
	}

	printBanner(cfg, root, pipeline, server)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return g.Start(ctx)
}

// buildLogger returns the daemon logger, tee'd into a rotating file when
// one is configured, and a closer for the file sink.
func buildLogger(cfg config.LogConfig) (*log.Logger, func()) {
	if cfg.File == "" {
		return log.New(os.Stderr, "[pymend] ", log.LstdFlags), func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	out := io.MultiWriter(os.Stderr, rotator)
	return log.New(out, "[pymend] ", log.LstdFlags), func() { _ = rotator.Close() }
}

// printBanner summarizes the effective configuration at startup.
func printBanner(cfg *config.Config, root string, pipeline *heal.Pipeline, server *dashboard.Server) {
	fmt.Printf("pymend %s\n", version)
	fmt.Printf("  watching:  %s (*%s)\n", root, cfg.Suffix)
	fmt.Printf("  debounce:  %v (poll %v)\n", cfg.Debounce, cfg.PollInterval)

	if pipeline.Formatter().Available() {
		fmt.Printf("  formatter: %s\n", cfg.Formatter.Command)
	} else {
		fmt.Printf("  formatter: %s (not found, formatting skipped)\n", cfg.Formatter.Command)
	}
	if cfg.History.Path != "" {
		fmt.Printf("  history:   %s\n", cfg.History.Path)
	}
	if cfg.Docs.Dir != "" {
		fmt.Printf("  docs:      %s\n", cfg.Docs.Dir)
	}
	if server != nil {
		fmt.Printf("  dashboard: ws://localhost%s/ws\n", serverPortSuffix(server))
	}
	fmt.Println("\nPress Ctrl+C to stop...")
}

// serverPortSuffix renders ":port" from the bound address, which may
// differ from the configured port when 0 was requested.
func serverPortSuffix(server *dashboard.Server) string {
	addr := server.GetAddr()
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return addr
}
