package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pymend/pymend/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start a standalone WebSocket dashboard server",
	Long: `Start a WebSocket server that relays guardian events to clients.

This runs the dashboard without the watch daemon, which is mainly useful
for developing dashboard clients. "pymend watch --dashboard" runs both
together and is what you want in normal use.

WebSocket events include:
- file_queued: A change entered the debounce queue
- heal_complete: A file was healed and written back
- heal_failed: A pipeline stage aborted a heal
- docs_refreshed: A documentation manifest was regenerated
- stats: Aggregate heal counts

Example usage:
  pymend dashboard               # Start on default port 8791
  pymend dashboard --port 9000

Connect with a WebSocket client:
  ws://localhost:8791/ws`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		})

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check: http://localhost:%d/health\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		<-ctx.Done()

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}

		fmt.Println("Dashboard server stopped")
		return nil
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 8791, "Port to listen on")

	rootCmd.AddCommand(dashboardCmd)
}
