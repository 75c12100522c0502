package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pymend/pymend/internal/config"
	"github.com/pymend/pymend/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show recent heal runs",
	Long: `List recent heal runs recorded by the watch daemon, newest first.

With a path argument, only runs for that file are shown.

Example usage:
  pymend history                 # Last 20 runs across all files
  pymend history --limit 50
  pymend history src/service.py  # Runs for one file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.History.Path == "" {
			return fmt.Errorf("history is disabled (history.path is empty)")
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.InitSchema(); err != nil {
			return err
		}

		ctx := cmd.Context()

		var records []*history.Record
		if len(args) == 1 {
			records, err = store.RecentForPath(ctx, args[0], limit)
		} else {
			records, err = store.Recent(ctx, limit)
		}
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No heal runs recorded yet.")
			return nil
		}

		for _, rec := range records {
			printRecord(rec)
		}

		stats, err := store.GetStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("\n%d runs total: %d healed, %d failed\n",
			stats.Total, stats.Succeeded, stats.Failed)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}

// printRecord renders one heal run as a single line.
func printRecord(rec *history.Record) {
	when := rec.StartedAt.Local().Format(time.DateTime)

	if rec.Succeeded {
		delta := rec.BytesAfter - rec.BytesBefore
		fmt.Printf("%s  ok    %-40s %6dms  %+d bytes\n",
			when, rec.Path, rec.Duration.Milliseconds(), delta)
		for _, warning := range rec.Warnings {
			fmt.Printf("%*s  warn: %s\n", len(when), "", warning)
		}
		return
	}

	fmt.Printf("%s  FAIL  %-40s stage=%s: %s\n",
		when, rec.Path, rec.FailedStage, rec.Error)
}
