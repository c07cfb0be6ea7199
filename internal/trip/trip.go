// Package trip defines the domain types shared across the planning pipeline:
// the incoming trip request, the plan result produced by the orchestrator,
// and the budget analysis attached to it.
package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Style is the travel style requested by the user.
type Style string

// Valid travel styles. Unknown values normalize to StyleModerate.
const (
	StyleBudget   Style = "budget"
	StyleModerate Style = "moderate"
	StyleLuxury   Style = "luxury"
)

// NormalizeStyle maps free-form style input onto the closed Style set.
// Empty or unrecognized input falls back to StyleModerate.
func NormalizeStyle(s string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleBudget:
		return StyleBudget
	case StyleLuxury:
		return StyleLuxury
	default:
		return StyleModerate
	}
}

// Request is an immutable trip-planning request.
// Callers construct it once and pass it by value through the pipeline.
type Request struct {
	Destination string   `json:"destination"`
	Days        int      `json:"days"`
	StartDate   string   `json:"start_date,omitempty"` // ISO date, optional
	Budget      float64  `json:"budget"`               // currency-agnostic units, 0 = unspecified
	Travelers   int      `json:"travelers"`
	Style       Style    `json:"travel_style"`
	Interests   []string `json:"interests,omitempty"`
}

// Validate checks the request before any agent call is made.
// Violations are reported as *Error with KindValidation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return &Error{Kind: KindValidation, Message: "destination is required"}
	}
	if r.Days < 1 {
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("days must be at least 1, got %d", r.Days)}
	}
	if r.Travelers < 1 {
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("travelers must be at least 1, got %d", r.Travelers)}
	}
	if r.Budget < 0 {
		return &Error{Kind: KindValidation, Message: "budget must not be negative"}
	}
	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			return &Error{Kind: KindValidation, Message: fmt.Sprintf("start_date must be an ISO date (YYYY-MM-DD): %q", r.StartDate)}
		}
	}
	return nil
}

// PlanResult is the artifact the orchestrator hands back to callers.
// Budget is nil when the budget agent degraded (soft failure); Notes
// carries human-readable degradation notices for the client.
type PlanResult struct {
	Itinerary string          `json:"raw_itinerary_text"`
	Budget    *BudgetAnalysis `json:"budget_analysis,omitempty"`
	Notes     []string        `json:"notes,omitempty"`
}

// Category is a fixed budget category.
type Category string

// The closed budget category set. Estimates always cover all five.
const (
	CategoryLodging    Category = "lodging"
	CategoryFood       Category = "food"
	CategoryTransport  Category = "transport"
	CategoryActivities Category = "activities"
	CategoryMisc       Category = "misc"
)

// Categories returns the category set in stable order.
func Categories() []Category {
	return []Category{CategoryLodging, CategoryFood, CategoryTransport, CategoryActivities, CategoryMisc}
}

// Range is a min/max amount pair in currency-agnostic units.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the range midpoint.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

// Scale returns the range multiplied by factor.
func (r Range) Scale(factor float64) Range {
	return Range{Min: r.Min * factor, Max: r.Max * factor}
}

// BudgetAnalysis is a per-category daily-per-person cost estimate
// plus the derived totals for the whole trip and group.
type BudgetAnalysis struct {
	Style          Style              `json:"travel_style"`
	Days           int                `json:"days"`
	Travelers      int                `json:"travelers"`
	PerDay         map[Category]Range `json:"daily_per_person"`
	DailyPerPerson Range              `json:"daily_per_person_total"`
	TotalPerPerson Range              `json:"total_per_person"`
	TotalGroup     Range              `json:"total_group"`
}

// SortedCategories returns the analysis categories in stable order,
// for deterministic rendering and logging.
func (b *BudgetAnalysis) SortedCategories() []Category {
	cats := make([]Category, 0, len(b.PerDay))
	for c := range b.PerDay {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
