// Package cmd implements the planit command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planit",
	Short: "PlanIT - AI trip planning service",
	Long: `PlanIT turns a trip request into a grounded day-by-day itinerary with a
budget breakdown, and serves a conversational planning API.

Run 'planit serve' to start the HTTP API, or 'planit plan' for a
one-shot plan from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
