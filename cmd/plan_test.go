package cmd

import (
	"strings"
	"testing"

	"github.com/planit-dev/planit/internal/trip"
)

func TestRenderPlanPrintsDayTitleOnce(t *testing.T) {
	result := &trip.PlanResult{
		Itinerary: "Day 1: Arrival\n- Check in at the guesthouse\nDay 2: Old town\n- Walking tour ($15)",
	}
	out := renderPlan(result)

	for _, banner := range []string{"=== Day 1 ===", "=== Day 2 ==="} {
		if got := strings.Count(out, banner); got != 1 {
			t.Errorf("banner %q appears %d times, want 1", banner, got)
		}
	}
	// The header line itself must not render under the banner.
	if strings.Contains(out, "Day 1: Arrival") {
		t.Errorf("day title duplicated:\n%s", out)
	}
	if !strings.Contains(out, "Check in at the guesthouse") {
		t.Errorf("activity missing:\n%s", out)
	}
	if !strings.Contains(out, "$15") {
		t.Errorf("cost tag missing:\n%s", out)
	}
}

func TestRenderPlanHeaderlessNarrative(t *testing.T) {
	result := &trip.PlanResult{
		Itinerary: "Just wander around town.",
		Notes:     []string{"destination not recognized"},
	}
	out := renderPlan(result)

	if strings.Contains(out, "=== Day") {
		t.Errorf("unexpected day banner for headerless narrative:\n%s", out)
	}
	if !strings.Contains(out, "Just wander around town.") {
		t.Errorf("narrative text missing:\n%s", out)
	}
	if !strings.Contains(out, "Note: destination not recognized") {
		t.Errorf("note missing:\n%s", out)
	}
}
