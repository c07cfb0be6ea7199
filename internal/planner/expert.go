package planner

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/itinerary"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/trip"
)

const expertSystemPrompt = `You are a local travel expert reviewing a draft itinerary.
Polish the draft for tone and completeness and weave in any provided
insider knowledge: hidden gems, local etiquette, money-saving tricks and
the best times to visit attractions.
Keep the day structure and formatting of the draft EXACTLY as it is.
Only add or adjust content; never drop days or restructure the output.`

// expertCostMargin is how far the refined itinerary's summed activity
// costs may exceed the budget estimate before a reduce-cost regeneration
// is triggered.
const expertCostMargin = 0.20

// refineItinerary runs the expert pass over the draft narrative.
//
// The pass polishes the draft, enriches it with retrieved local knowledge
// when a store is available, and enforces two constraints: the refined
// text must keep the draft's day structure (otherwise the draft is kept),
// and its summed activity costs must stay within the margin of the budget
// estimate (otherwise one regeneration with an explicit reduce-cost
// instruction is attempted). Soft operation: any failure returns the
// draft unchanged along with a degradation note.
func refineItinerary(ctx context.Context, gen genai.Generator, store knowledge.Store, req trip.Request, draft string, budget *trip.BudgetAnalysis) (string, []string) {
	passages := expertKnowledge(ctx, store, req.Destination)

	refined, err := gen.Generate(ctx, genai.Request{
		System: expertSystemPrompt,
		Prompt: expertPrompt(draft, passages, budget),
	})
	if err != nil || strings.TrimSpace(refined) == "" {
		return draft, []string{"expert refinement unavailable, returning draft itinerary"}
	}
	if !sameDayStructure(draft, refined) {
		return draft, []string{"expert refinement changed the day structure, returning draft itinerary"}
	}

	limit := costLimit(budget)
	if limit <= 0 {
		return refined, nil
	}
	cost := narrativeCost(refined)
	if cost <= limit*(1+expertCostMargin) {
		return refined, nil
	}

	// One reduce-cost retry, then accept what we have.
	reduced, err := gen.Generate(ctx, genai.Request{
		System: expertSystemPrompt,
		Prompt: reduceCostPrompt(refined, cost, limit),
	})
	if err == nil && strings.TrimSpace(reduced) != "" && sameDayStructure(draft, reduced) {
		refined = reduced
		cost = narrativeCost(refined)
	}
	if cost > limit*(1+expertCostMargin) {
		return refined, []string{fmt.Sprintf("itinerary costs (~%.0f per person) may exceed the estimated budget of %.0f", cost, limit)}
	}
	return refined, nil
}

// expertKnowledge retrieves insider passages for the refinement prompt.
// Nil store or failed retrieval just means an unenriched polish pass.
func expertKnowledge(ctx context.Context, store knowledge.Store, destination string) []knowledge.Result {
	if store == nil {
		return nil
	}
	dest := strings.ToLower(strings.TrimSpace(destination))
	passages, err := store.Search(ctx, "insider tips, hidden gems and local advice for "+destination,
		knowledge.WithDestination(dest))
	if err != nil || len(passages) == 0 {
		passages, _ = store.Search(ctx, "general travel advice",
			knowledge.WithDestination("default"))
	}
	return passages
}

func expertPrompt(draft string, passages []knowledge.Result, budget *trip.BudgetAnalysis) string {
	var b strings.Builder
	b.WriteString("DRAFT ITINERARY:\n")
	b.WriteString(draft)
	if len(passages) > 0 {
		b.WriteString("\n\nINSIDER KNOWLEDGE:\n")
		for _, r := range passages {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Passage.Topic, r.Passage.Content)
		}
	}
	if limit := costLimit(budget); limit > 0 {
		fmt.Fprintf(&b, "\nBUDGET CONSTRAINT: the total cost per person must stay around %.0f.\n", limit)
	}
	b.WriteString("\nRewrite the draft with this in mind.\n")
	return b.String()
}

func reduceCostPrompt(refined string, cost, limit float64) string {
	var b strings.Builder
	b.WriteString("DRAFT ITINERARY:\n")
	b.WriteString(refined)
	fmt.Fprintf(&b, "\n\nThe activities above cost roughly %.0f per person, which exceeds the budget of %.0f.\n", cost, limit)
	b.WriteString("REDUCE COSTS: swap expensive activities and restaurants for cheaper alternatives until the total fits the budget. Keep the day structure exactly as it is.\n")
	return b.String()
}

// sameDayStructure reports whether two narratives compile to the same
// day-number sequence.
func sameDayStructure(a, b string) bool {
	return slices.Equal(itinerary.Structure(a).DayNumbers(), itinerary.Structure(b).DayNumbers())
}

// costLimit is the per-person trip total the refined narrative is held to.
func costLimit(budget *trip.BudgetAnalysis) float64 {
	if budget == nil {
		return 0
	}
	return budget.TotalPerPerson.Max
}

var amountPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// narrativeCost sums the cost tags the compiler extracts from a
// narrative. Range tags count at their midpoint. Zero means the narrative
// carries no priced activities, in which case no cost check applies.
func narrativeCost(narrative string) float64 {
	var total float64
	for _, day := range itinerary.Structure(narrative).Days {
		for _, unit := range day.Units {
			for _, tag := range unit.CostTags {
				amounts := amountPattern.FindAllString(tag, -1)
				var sum float64
				for _, a := range amounts {
					v, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", ""), 64)
					if err != nil {
						continue
					}
					sum += v
				}
				if len(amounts) > 0 {
					total += sum / float64(len(amounts))
				}
			}
		}
	}
	return total
}

// localTips returns the stored advice passages for a destination, falling
// back to the generic corpus.
func localTips(ctx context.Context, store knowledge.Store, destination string, topK int) ([]knowledge.Result, error) {
	dest := strings.ToLower(strings.TrimSpace(destination))
	results, err := store.Search(ctx, "local tips and etiquette for "+destination,
		knowledge.WithDestination(dest), knowledge.WithTopK(topK))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return store.Search(ctx, "general travel advice",
			knowledge.WithDestination("default"), knowledge.WithTopK(topK))
	}
	return results, nil
}

// LocalTips is the exported form used by the chat tool layer.
func LocalTips(ctx context.Context, store knowledge.Store, destination string, topK int) ([]knowledge.Result, error) {
	return localTips(ctx, store, destination, topK)
}
