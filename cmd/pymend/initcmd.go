package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pymend/pymend/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pymend.yaml interactively",
	Long: `Walk through the guardian settings and write a pymend.yaml in the
current directory. Settings not asked about get their defaults; edit the
generated file for full control.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			if _, err := os.Stat("pymend.yaml"); err == nil {
				return fmt.Errorf("pymend.yaml already exists (use --force to overwrite)")
			}
		}

		cfg := config.Default()
		enableHistory := true
		enableDashboard := cfg.Dashboard.Enabled

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Directory to watch").
					Description("Root of the Python tree the guardian should heal.").
					Value(&cfg.Root),
				huh.NewInput().
					Title("Formatter command").
					Description("External formatter binary, invoked over stdin.").
					Value(&cfg.Formatter.Command),
				huh.NewInput().
					Title("Docs directory").
					Description("Where outline manifests go. Leave empty to disable.").
					Value(&cfg.Docs.Dir),
				huh.NewConfirm().
					Title("Record heal history?").
					Description("Keeps a local SQLite log of every heal run.").
					Value(&enableHistory),
				huh.NewConfirm().
					Title("Enable the dashboard?").
					Description("Serves heal events over WebSocket while watching.").
					Value(&enableDashboard),
			),
		)

		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return fmt.Errorf("cancelled")
			}
			return fmt.Errorf("form error: %w", err)
		}

		if !enableHistory {
			cfg.History.Path = ""
		}
		cfg.Dashboard.Enabled = enableDashboard

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := os.WriteFile("pymend.yaml", []byte(renderConfig(cfg)), 0644); err != nil {
			return fmt.Errorf("write pymend.yaml: %w", err)
		}

		fmt.Println("Wrote pymend.yaml. Start the guardian with: pymend watch")
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing pymend.yaml")

	rootCmd.AddCommand(initCmd)
}

// renderConfig writes the config as commented YAML. Durations are
// rendered in their human form rather than nanosecond integers.
func renderConfig(cfg *config.Config) string {
	return fmt.Sprintf(`# pymend guardian configuration.
# Values may be overridden with PYMEND_* environment variables.

root: %s
suffix: %s

# Quiet period before a changed file is healed, and how often the
# queue is checked for due files.
debounce: %s
poll_interval: %s
heal_timeout: %s

formatter:
  command: %s
  timeout: %s

history:
  # SQLite log of heal runs. Empty disables history.
  path: %s

docs:
  # Outline manifests are written here. Empty disables them.
  dir: %s
  # Prose summaries use this model when ANTHROPIC_API_KEY is set.
  summary_model: %s

dashboard:
  enabled: %t
  port: %d

log:
  # Rotating daemon log file. Empty logs to stderr only.
  file: %s
  max_size_mb: %d
  max_backups: %d
  max_age_days: %d
`,
		cfg.Root, cfg.Suffix,
		cfg.Debounce, cfg.PollInterval, cfg.HealTimeout,
		cfg.Formatter.Command, cfg.Formatter.Timeout,
		cfg.History.Path,
		cfg.Docs.Dir, cfg.Docs.SummaryModel,
		cfg.Dashboard.Enabled, cfg.Dashboard.Port,
		cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
}
