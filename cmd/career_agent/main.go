// Package main provides the entry point for the career simulator server and
// offline simulation CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "career_agent",
	Short: "Career simulator orchestration service",
	Long:  "Career simulator runs player career sessions: generated job listings, interviews, work tasks, meetings, and XP progression, exposed over a REST API or as a seeded offline simulation.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
