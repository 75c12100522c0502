package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pymend/pymend/internal/config"
	"github.com/pymend/pymend/internal/heal"
	"github.com/pymend/pymend/internal/notify"
)

var healCmd = &cobra.Command{
	Use:   "heal <file>...",
	Short: "Heal specific files once, without watching",
	Long: `Run the heal pipeline over the given files and exit.

This applies the same stages as the watch daemon: syntax patching,
structural rewriting, and external formatting. Files that cannot be
confidently repaired are reported and left untouched.

With --explain, pymend also shows which pyproject.toml the formatter
will resolve for each file and whether it carries a tool section.

Example usage:
  pymend heal src/service.py
  pymend heal --explain src/*.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		explain, _ := cmd.Flags().GetBool("explain")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		pipeline := heal.NewPipeline(&heal.Formatter{
			Command: cfg.Formatter.Command,
			Timeout: cfg.Formatter.Timeout,
		})
		notifier := notify.NewConsole(os.Stdout)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.HealTimeout)
		defer cancel()

		failures := 0
		for _, path := range args {
			if explain {
				printProjectConfig(path, cfg.Formatter.Command)
			}

			res := pipeline.Run(ctx, path)
			if !res.Succeeded {
				failures++
				notifier.Emit(fmt.Sprintf("Error processing %s: %v", path, res.Err), true)
				continue
			}
			for _, warning := range res.Warnings {
				fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", path, warning)
			}
			notifier.Emit(fmt.Sprintf("Processed %s", path), false)
		}

		if failures > 0 {
			return fmt.Errorf("%d of %d files could not be healed", failures, len(args))
		}
		return nil
	},
}

func init() {
	healCmd.Flags().Bool("explain", false, "Show the project config each file resolves to")

	rootCmd.AddCommand(healCmd)
}

// printProjectConfig reports the pyproject.toml governing a file.
func printProjectConfig(path, tool string) {
	pc := heal.ResolveProjectConfig(path, tool)
	switch {
	case pc.Path == "":
		fmt.Printf("%s: no pyproject.toml found, %s uses its defaults\n", path, tool)
	case pc.HasToolSection:
		fmt.Printf("%s: %s ([tool.%s] present)\n", path, pc.Path, tool)
	default:
		fmt.Printf("%s: %s (no [tool.%s] section, defaults apply)\n", path, pc.Path, tool)
	}
}
