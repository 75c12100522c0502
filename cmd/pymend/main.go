// Command pymend is a codebase guardian for Python source trees. It
// watches for edits, repairs common syntax and structure slips, runs the
// configured formatter, and keeps documentation manifests fresh.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pymend",
	Short: "Guardian daemon that heals Python files as you edit",
	Long: `pymend watches a Python source tree and heals files shortly after
each save: common syntax slips are patched, structural issues are
rewritten, and the configured formatter gets the last word.

Rapid saves of the same file collapse into a single heal. Files the
guardian cannot confidently repair are left byte-for-byte untouched and
reported instead.

Start the daemon with "pymend watch", or heal specific files once with
"pymend heal".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./pymend.yaml if present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
