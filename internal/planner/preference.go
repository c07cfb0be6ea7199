package planner

import (
	"sort"
	"strings"
	"time"

	"github.com/planit-dev/planit/internal/trip"
)

// Pace describes how densely the itinerary should be scheduled.
type Pace string

// Itinerary pacing levels, derived from the interest count per day.
const (
	PaceRelaxed  Pace = "relaxed"
	PaceBalanced Pace = "balanced"
	PacePacked   Pace = "packed"
)

// GroupType is the traveler composition, derived from the group size.
type GroupType string

// Group compositions.
const (
	GroupSolo   GroupType = "solo"
	GroupCouple GroupType = "couple"
	GroupGroup  GroupType = "group"
)

// Preferences is the structured interpretation of a trip request.
// It is derived deterministically: the same request always yields the
// same preferences, so the downstream prompts stay reproducible.
type Preferences struct {
	Style     trip.Style `json:"travel_style"`
	Interests []string   `json:"interests"`
	Pace      Pace       `json:"pace"`
	Group     GroupType  `json:"group"`
	Season    string     `json:"season,omitempty"`
}

// interestAliases folds synonymous interest phrasings onto canonical terms.
var interestAliases = map[string]string{
	"hiking":      "hiking",
	"trekking":    "hiking",
	"trek":        "hiking",
	"food":        "food",
	"foodie":      "food",
	"cuisine":     "food",
	"eating":      "food",
	"culture":     "culture",
	"cultural":    "culture",
	"history":     "history",
	"historical":  "history",
	"museums":     "museums",
	"museum":      "museums",
	"art":         "art",
	"beach":       "beaches",
	"beaches":     "beaches",
	"nightlife":   "nightlife",
	"party":       "nightlife",
	"shopping":    "shopping",
	"nature":      "nature",
	"wildlife":    "wildlife",
	"photography": "photography",
	"photos":      "photography",
	"adventure":   "adventure",
	"relaxation":  "relaxation",
	"relaxing":    "relaxation",
	"wellness":    "relaxation",
	"spa":         "relaxation",
}

// InterpretPreferences structures the raw request into preferences.
func InterpretPreferences(req trip.Request) Preferences {
	return Preferences{
		Style:     trip.NormalizeStyle(string(req.Style)),
		Interests: normalizeInterests(req.Interests),
		Pace:      paceFor(len(req.Interests), req.Days),
		Group:     groupFor(req.Travelers),
		Season:    seasonFor(req.StartDate),
	}
}

// normalizeInterests lowercases, canonicalizes and dedupes interests,
// returning them sorted for stable prompt construction.
func normalizeInterests(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, item := range raw {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		if canonical, ok := interestAliases[key]; ok {
			key = canonical
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// paceFor maps the interest-per-day ratio onto a pacing level.
func paceFor(interests, days int) Pace {
	if days < 1 {
		return PaceBalanced
	}
	ratio := float64(interests) / float64(days)
	switch {
	case ratio > 1.5:
		return PacePacked
	case ratio < 0.5:
		return PaceRelaxed
	default:
		return PaceBalanced
	}
}

// groupFor maps the traveler count onto a composition.
func groupFor(travelers int) GroupType {
	switch {
	case travelers <= 1:
		return GroupSolo
	case travelers == 2:
		return GroupCouple
	default:
		return GroupGroup
	}
}

// seasonFor derives a northern-hemisphere season from the start date.
// Empty or unparsable dates yield no season.
func seasonFor(startDate string) string {
	if startDate == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return ""
	}
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}
