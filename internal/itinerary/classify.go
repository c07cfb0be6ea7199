package itinerary

import "strings"

// periodKeywords maps time-of-day cues to periods. Scanned in order, first
// match wins, so meal cues resolve before the generic "night".
var periodKeywords = []struct {
	keyword string
	period  Period
}{
	{"morning", PeriodMorning},
	{"breakfast", PeriodMorning},
	{"sunrise", PeriodMorning},
	{"afternoon", PeriodAfternoon},
	{"lunch", PeriodAfternoon},
	{"midday", PeriodAfternoon},
	{"evening", PeriodEvening},
	{"sunset", PeriodEvening},
	{"dinner", PeriodEvening},
	{"night", PeriodNight},
	{"midnight", PeriodNight},
}

// tipPrefixes mark a line as traveler advice. Checked after bullet markers
// are stripped, so "- Tip: ..." and "Tip: ..." classify the same way.
var tipPrefixes = []string{"tip", "note:", "pro tip", "💡"}

// classifyLine applies the rule order: heading (possibly a time badge),
// then tip, then bulleted activity, then plain text. Exactly one unit per
// line, Raw always set to the trimmed source line.
func classifyLine(line string) LineUnit {
	if isHeading(line) {
		text := stripMarkup(line)
		if p, ok := matchPeriod(text); ok {
			return LineUnit{Kind: KindTimeBadge, Raw: line, Text: text, Period: p}
		}
		return LineUnit{Kind: KindHeading, Raw: line, Text: text}
	}

	body, bulleted := stripBullet(line)
	text := stripMarkup(body)

	if isTip(text) {
		return LineUnit{Kind: KindTip, Raw: line, Text: text}
	}

	if bulleted {
		label, tags := extractCosts(text)
		return LineUnit{
			Kind:     KindActivity,
			Raw:      line,
			Text:     label,
			Icon:     iconFor(label),
			CostTags: tags,
		}
	}

	return LineUnit{Kind: KindPlainText, Raw: line, Text: text}
}

// isHeading reports whether the line is structural: markdown heading markup
// or a whole-line bold span.
func isHeading(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4 {
		return true
	}
	if strings.HasPrefix(line, "__") && strings.HasSuffix(line, "__") && len(line) > 4 {
		return true
	}
	return false
}

// isTip reports whether the de-markup'd line opens with a tip cue.
func isTip(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range tipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// matchPeriod scans the keyword table in order against the lowercased text.
func matchPeriod(text string) (Period, bool) {
	lower := strings.ToLower(text)
	for _, pk := range periodKeywords {
		if strings.Contains(lower, pk.keyword) {
			return pk.period, true
		}
	}
	return "", false
}

// stripBullet removes a leading list marker ("-", "*", "•", "+") and reports
// whether one was present. A "**bold**" opener is not a bullet.
func stripBullet(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• ", "+ "} {
		if strings.HasPrefix(line, marker) && !strings.HasPrefix(line, "**") {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return line, false
}

// stripMarkup removes markdown decoration from a line: heading hashes,
// bold/italic wrappers and backticks. Content characters are untouched.
func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	for _, tok := range []string{"**", "__", "*", "_", "`"} {
		s = strings.ReplaceAll(s, tok, "")
	}
	return strings.TrimSpace(s)
}
