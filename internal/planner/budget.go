package planner

import (
	"math"

	"github.com/planit-dev/planit/internal/trip"
)

// costTable is the baseline daily per-person cost range for each travel
// style, in currency-agnostic units at a 1.0 destination multiplier.
var costTable = map[trip.Style]map[trip.Category]trip.Range{
	trip.StyleBudget: {
		trip.CategoryLodging:    {Min: 20, Max: 50},
		trip.CategoryFood:       {Min: 15, Max: 30},
		trip.CategoryActivities: {Min: 10, Max: 30},
		trip.CategoryTransport:  {Min: 10, Max: 25},
		trip.CategoryMisc:       {Min: 5, Max: 15},
	},
	trip.StyleModerate: {
		trip.CategoryLodging:    {Min: 80, Max: 150},
		trip.CategoryFood:       {Min: 40, Max: 70},
		trip.CategoryActivities: {Min: 40, Max: 80},
		trip.CategoryTransport:  {Min: 30, Max: 60},
		trip.CategoryMisc:       {Min: 10, Max: 30},
	},
	trip.StyleLuxury: {
		trip.CategoryLodging:    {Min: 200, Max: 500},
		trip.CategoryFood:       {Min: 100, Max: 200},
		trip.CategoryActivities: {Min: 100, Max: 300},
		trip.CategoryTransport:  {Min: 80, Max: 150},
		trip.CategoryMisc:       {Min: 30, Max: 80},
	},
}

// budgetTolerance is the allowed relative gap between the estimate's
// daily-per-person midpoint and the user's stated daily budget before
// rescaling kicks in.
const budgetTolerance = 0.15

// EstimateBudget produces the budget analysis for a request.
//
// The baseline table is scaled by the destination multiplier (1.0 when no
// place was resolved). When the request states a total budget, the whole
// estimate is rescaled so the daily-per-person midpoint lands within the
// tolerance of budget/days/travelers.
func EstimateBudget(req trip.Request, place *Place) *trip.BudgetAnalysis {
	style := trip.NormalizeStyle(string(req.Style))

	multiplier := 1.0
	if place != nil && place.Multiplier > 0 {
		multiplier = place.Multiplier
	}

	perDay := make(map[trip.Category]trip.Range, len(costTable[style]))
	for cat, r := range costTable[style] {
		perDay[cat] = r.Scale(multiplier)
	}

	analysis := assemble(req, style, perDay)

	if req.Budget > 0 {
		target := req.Budget / float64(req.Days) / float64(req.Travelers)
		mid := analysis.DailyPerPerson.Mid()
		if mid > 0 && relativeGap(mid, target) > budgetTolerance {
			factor := target / mid
			for cat, r := range perDay {
				perDay[cat] = r.Scale(factor)
			}
			analysis = assemble(req, style, perDay)
		}
	}

	return analysis
}

// assemble derives the totals from the per-category daily ranges.
func assemble(req trip.Request, style trip.Style, perDay map[trip.Category]trip.Range) *trip.BudgetAnalysis {
	var daily trip.Range
	for _, r := range perDay {
		daily.Min += r.Min
		daily.Max += r.Max
	}

	days := float64(req.Days)
	travelers := float64(req.Travelers)
	return &trip.BudgetAnalysis{
		Style:          style,
		Days:           req.Days,
		Travelers:      req.Travelers,
		PerDay:         perDay,
		DailyPerPerson: daily,
		TotalPerPerson: daily.Scale(days),
		TotalGroup:     daily.Scale(days * travelers),
	}
}

// relativeGap is |a-b| relative to b.
func relativeGap(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Abs(a-b) / b
}
