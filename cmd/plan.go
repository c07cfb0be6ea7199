package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planit-dev/planit/internal/app"
	"github.com/planit-dev/planit/internal/config"
	"github.com/planit-dev/planit/internal/itinerary"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/trip"
)

var planFlags struct {
	destination string
	days        int
	travelers   int
	style       string
	budget      float64
	startDate   string
	interests   []string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a one-shot trip plan",
	Example: `  planit plan --destination "Goa" --days 3 --travelers 2 --style budget
  planit plan --destination "Paris" --days 5 --interests food,museums --start 2026-07-10`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPlan(cmd.Context())
	},
}

func init() {
	planCmd.Flags().StringVar(&planFlags.destination, "destination", "", "trip destination (required)")
	planCmd.Flags().IntVar(&planFlags.days, "days", 3, "number of days")
	planCmd.Flags().IntVar(&planFlags.travelers, "travelers", 1, "number of travelers")
	planCmd.Flags().StringVar(&planFlags.style, "style", "moderate", "travel style: budget, moderate or luxury")
	planCmd.Flags().Float64Var(&planFlags.budget, "budget", 0, "total trip budget (0 = unspecified)")
	planCmd.Flags().StringVar(&planFlags.startDate, "start", "", "start date (YYYY-MM-DD)")
	planCmd.Flags().StringSliceVar(&planFlags.interests, "interests", nil, "comma-separated interests")
	_ = planCmd.MarkFlagRequired("destination")
	rootCmd.AddCommand(planCmd)
}

func runPlan(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result, err := a.Planner.GeneratePlan(ctx, trip.Request{
		Destination: planFlags.destination,
		Days:        planFlags.days,
		Travelers:   planFlags.travelers,
		Style:       trip.NormalizeStyle(planFlags.style),
		Budget:      planFlags.budget,
		StartDate:   planFlags.startDate,
		Interests:   planFlags.interests,
	})
	if err != nil {
		return err
	}

	fmt.Print(renderPlan(result))
	return nil
}

// renderPlan formats the structured plan for the terminal.
func renderPlan(result *trip.PlanResult) string {
	var b strings.Builder

	doc := itinerary.Structure(result.Itinerary)
	for _, day := range doc.Days {
		banner := day.Number > 0
		if banner {
			fmt.Fprintf(&b, "\n=== Day %d ===\n", day.Number)
		}
		for _, unit := range day.Units {
			// The banner already shows the day, so the header line itself
			// would print the title twice.
			if banner && itinerary.IsDayHeader(unit.Raw) {
				continue
			}
			switch unit.Kind {
			case itinerary.KindTimeBadge:
				fmt.Fprintf(&b, "\n[%s] %s\n", unit.Period, unit.Text)
			case itinerary.KindHeading:
				fmt.Fprintf(&b, "\n%s\n", unit.Text)
			case itinerary.KindActivity:
				fmt.Fprintf(&b, "  %s %s", unit.Icon, unit.Text)
				if len(unit.CostTags) > 0 {
					fmt.Fprintf(&b, " (%s)", strings.Join(unit.CostTags, ", "))
				}
				b.WriteString("\n")
			case itinerary.KindTip:
				fmt.Fprintf(&b, "  💡 %s\n", unit.Text)
			default:
				fmt.Fprintf(&b, "  %s\n", unit.Text)
			}
		}
	}

	if result.Budget != nil {
		budget := result.Budget
		fmt.Fprintf(&b, "\n=== Budget (%s, %d days, %d travelers) ===\n",
			budget.Style, budget.Days, budget.Travelers)
		for _, cat := range budget.SortedCategories() {
			r := budget.PerDay[cat]
			fmt.Fprintf(&b, "  %-12s %.0f - %.0f per day per person\n", cat, r.Min, r.Max)
		}
		fmt.Fprintf(&b, "  %-12s %.0f - %.0f\n", "trip total", budget.TotalGroup.Min, budget.TotalGroup.Max)
	}

	for _, note := range result.Notes {
		fmt.Fprintf(&b, "\nNote: %s\n", note)
	}
	return b.String()
}
