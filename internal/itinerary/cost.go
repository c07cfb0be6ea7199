package itinerary

import (
	"regexp"
	"strings"
)

// costPattern matches a currency amount or amount range embedded in an
// activity line: a currency symbol, digits with optional thousands commas
// and decimals, and optionally a dash- or "to"-joined upper bound which may
// repeat the symbol. Examples: "₹500", "$12.50", "₹800–₹1200", "€20 - €35".
var costPattern = regexp.MustCompile(`[₹$€£¥]\s?\d+(?:,\d{3})*(?:\.\d+)?(?:\s?(?:[–—-]|to)\s?[₹$€£¥]?\s?\d+(?:,\d{3})*(?:\.\d+)?)?`)

// emptyParens matches parentheses left hollow after cost removal.
var emptyParens = regexp.MustCompile(`\(\s*\)`)

// multiSpace collapses runs of whitespace introduced by tag removal.
var multiSpace = regexp.MustCompile(`\s{2,}`)

// extractCosts pulls every currency mention out of an activity line.
// It returns the cleaned label and the cost tags in appearance order.
// Lines without currency mentions come back unchanged with nil tags.
func extractCosts(text string) (string, []string) {
	tags := costPattern.FindAllString(text, -1)
	if len(tags) == 0 {
		return text, nil
	}
	for i, t := range tags {
		tags[i] = strings.TrimSpace(t)
	}

	label := costPattern.ReplaceAllString(text, "")
	label = emptyParens.ReplaceAllString(label, "")
	label = multiSpace.ReplaceAllString(label, " ")
	label = strings.Trim(label, " \t-–—:,.")
	return label, tags
}
