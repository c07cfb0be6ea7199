package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/trip"
)

// itinerarySystemPrompt frames the generation model as the itinerary
// writer. The output format contract matters: the structuring compiler
// expects day headers, bold time blocks, bullets and "Tip:" lines.
const itinerarySystemPrompt = `You are the itinerary writer for a trip planning service.
Create practical day-by-day travel itineraries. Be specific: name real
places, include realistic timings and per-person costs, and respect the
traveler's budget level and pace.`

// itineraryFormat is appended to every itinerary prompt so the narrative
// stays machine-structurable.
const itineraryFormat = `Generate a structured itinerary following this EXACT format for each day:

Day 1: [Theme/Title]

**Morning (9:00 AM – 12:00 PM)**
- 9:00 AM – [Activity] (₹[cost] if applicable)
- 10:30 AM – [Activity]

**Afternoon (12:00 PM – 5:00 PM)**
- 12:00 PM – Lunch at [Restaurant] (₹[cost] per person)
- 2:00 PM – [Activity]

**Evening (5:00 PM – 9:00 PM)**
- 5:30 PM – [Activity]
- 7:30 PM – Dinner at [Restaurant] (₹[cost] per person)

Tip: [Useful local tip or recommendation]`

// buildItineraryPrompt assembles the generation prompt from the request,
// the structured preferences, the resolved place and retrieved knowledge.
func buildItineraryPrompt(req trip.Request, prefs Preferences, place *Place, passages []knowledge.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a detailed %d-day itinerary for %s.\n\n", req.Days, req.Destination)

	if place != nil {
		fmt.Fprintf(&b, "DESTINATION: %s, %s (lat %.4f, lon %.4f)\n\n",
			place.Name, place.Country, place.Lat, place.Lon)
	}

	fmt.Fprintf(&b, "TRAVELERS: %d (%s)\n", req.Travelers, prefs.Group)
	fmt.Fprintf(&b, "BUDGET LEVEL: %s\n", prefs.Style)
	if req.Budget > 0 {
		fmt.Fprintf(&b, "TOTAL BUDGET: %.0f for the whole group\n", req.Budget)
	}
	fmt.Fprintf(&b, "PACE: %s\n", prefs.Pace)
	if len(prefs.Interests) > 0 {
		fmt.Fprintf(&b, "INTERESTS: %s\n", strings.Join(prefs.Interests, ", "))
	}
	if prefs.Season != "" {
		fmt.Fprintf(&b, "SEASON: %s (starting %s)\n", prefs.Season, req.StartDate)
	}
	b.WriteString("\n")

	if len(passages) > 0 {
		b.WriteString("LOCAL KNOWLEDGE:\n")
		for _, r := range passages {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Passage.Topic, r.Passage.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString(itineraryFormat)
	return b.String()
}

// generateItinerary produces the narrative itinerary. Failure here is
// fatal for the plan: there is no itinerary to degrade to.
func generateItinerary(ctx context.Context, gen genai.Generator, req trip.Request, prefs Preferences, place *Place, passages []knowledge.Result) (string, error) {
	text, err := gen.Generate(ctx, genai.Request{
		System: itinerarySystemPrompt,
		Prompt: buildItineraryPrompt(req, prefs, place, passages),
	})
	if err != nil {
		return "", fmt.Errorf("generating itinerary: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("generating itinerary: model returned empty narrative")
	}
	return text, nil
}
