// Command crewdeck runs the project-management data-sync backend: an
// embedded SQLite store, the reactive in-memory store layer, and the
// dashboard WebSocket server that pushes changes to UI clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crewdeck",
	Short: "Project management data-sync backend",
	Long: `crewdeck is the data backend for a browser-based project management app.

It owns the durable store (projects, tasks, documents, files, users),
keeps an in-memory replica reconciled through a change feed, broadcasts
changes to UI clients over WebSocket, and can draft tasks and documents
from natural-language instructions.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./crewdeck.yaml or ~/.crewdeck/crewdeck.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(assistCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
