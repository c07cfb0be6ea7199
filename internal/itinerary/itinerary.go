// Package itinerary implements the structuring compiler: a deterministic,
// stateless transform from a raw narrative itinerary (generated text) into a
// typed document of days, time blocks and activities.
//
// The compiler never fails. Malformed or empty input degrades to a single
// unparsed block rather than an error, so downstream rendering and plan
// editing always have a document to work with.
package itinerary

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind tags a classified line unit.
type Kind string

// The closed set of line unit kinds, applied in rule order per line.
const (
	KindHeading   Kind = "heading"
	KindTimeBadge Kind = "time_badge"
	KindTip       Kind = "tip"
	KindActivity  Kind = "activity"
	KindPlainText Kind = "text"
)

// Period is the time-of-day bucket a TimeBadge heading belongs to.
type Period string

// Recognized day periods.
const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodNight     Period = "night"
)

// LineUnit is one classified line of the narrative.
//
// Raw preserves the source line (whitespace-trimmed, structural tokens
// intact) so that joining Raw values with newlines reconstructs the cleaned
// narrative, and re-running Structure on that reconstruction yields an
// identical document. Text carries the de-markup'd display form.
type LineUnit struct {
	Kind     Kind     `json:"kind"`
	Raw      string   `json:"raw"`
	Text     string   `json:"text"`
	Period   Period   `json:"period,omitempty"`    // time badges only
	Icon     string   `json:"icon,omitempty"`      // activities only
	CostTags []string `json:"cost_tags,omitempty"` // activities only
}

// DayBlock groups the line units of one narrative day.
// Number is 0 when no day header was detected anywhere in the narrative.
type DayBlock struct {
	Number int        `json:"day_number"`
	Units  []LineUnit `json:"units"`
}

// Itinerary is the structured document: day blocks in source appearance order.
type Itinerary struct {
	Days []DayBlock `json:"days"`
}

// placeholderText is emitted for empty or whitespace-only narratives.
const placeholderText = "No itinerary details available yet."

// dayHeaderPattern matches a day-delimiter line: optional markup, then
// "Day <n>", then an optional separator and title. Case-insensitive.
var dayHeaderPattern = regexp.MustCompile(`(?i)^[#>*_\s]*day\s+(\d+)\s*(?:[:.\-–—].*)?[\s*_]*$`)

// Structure compiles a raw narrative into the typed itinerary document.
//
// Day segmentation splits on "Day <n>" header lines in appearance order.
// Repeated or out-of-order day numbers are preserved verbatim: the document
// reflects the source, it does not repair it. Text preceding the first
// header is attached to the first day's block so that a narrative with N
// headers always yields exactly N blocks. With no headers at all the whole
// narrative becomes one block numbered 0.
func Structure(narrative string) Itinerary {
	lines := splitLines(narrative)
	if len(lines) == 0 {
		return Itinerary{Days: []DayBlock{{
			Number: 0,
			Units:  []LineUnit{{Kind: KindPlainText, Raw: placeholderText, Text: placeholderText}},
		}}}
	}

	var (
		days    []DayBlock
		current *DayBlock
		pending []LineUnit // units seen before the first day header
	)

	for _, line := range lines {
		if m := dayHeaderPattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				days = append(days, DayBlock{Number: n})
				current = &days[len(days)-1]
				if len(pending) > 0 {
					current.Units = append(current.Units, pending...)
					pending = nil
				}
				current.Units = append(current.Units, classifyLine(line))
				continue
			}
		}

		unit := classifyLine(line)
		if current != nil {
			current.Units = append(current.Units, unit)
		} else {
			pending = append(pending, unit)
		}
	}

	// No day header matched anywhere: single unparsed block.
	if len(days) == 0 {
		return Itinerary{Days: []DayBlock{{Number: 0, Units: pending}}}
	}

	return Itinerary{Days: days}
}

// Reconstruct joins the raw line units back into the cleaned narrative.
// Structure(it.Reconstruct()) yields a document identical to it.
func (it Itinerary) Reconstruct() string {
	var b strings.Builder
	first := true
	for _, day := range it.Days {
		for _, u := range day.Units {
			if !first {
				b.WriteByte('\n')
			}
			b.WriteString(u.Raw)
			first = false
		}
	}
	return b.String()
}

// IsDayHeader reports whether a line is a day-delimiter header.
// Renderers that print their own day banner use this to avoid showing
// the header line twice.
func IsDayHeader(line string) bool {
	return dayHeaderPattern.MatchString(strings.TrimSpace(line))
}

// DayNumbers returns the day numbers in appearance order.
func (it Itinerary) DayNumbers() []int {
	nums := make([]int, len(it.Days))
	for i, d := range it.Days {
		nums[i] = d.Number
	}
	return nums
}

// splitLines normalizes line endings, trims surrounding whitespace per line
// and drops blank lines. Blank lines separate content visually but carry no
// information for the document model.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
