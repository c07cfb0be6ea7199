package itinerary

import "strings"

// defaultIcon marks activities no table entry claims.
const defaultIcon = "📍"

// iconTable maps activity keywords to display icons. Scanned in order
// against the lowercased label, first match wins, so specific entries
// ("dinner") must precede generic ones ("restaurant", "food").
var iconTable = []struct {
	keyword string
	icon    string
}{
	{"breakfast", "🍳"},
	{"brunch", "🥞"},
	{"lunch", "🍽️"},
	{"dinner", "🍷"},
	{"coffee", "☕"},
	{"cafe", "☕"},
	{"street food", "🌮"},
	{"restaurant", "🍴"},
	{"food", "🍽️"},
	{"check-in", "🏨"},
	{"hotel", "🏨"},
	{"hostel", "🛏️"},
	{"flight", "✈️"},
	{"airport", "✈️"},
	{"train", "🚆"},
	{"bus", "🚌"},
	{"taxi", "🚕"},
	{"ferry", "⛴️"},
	{"boat", "🛥️"},
	{"cruise", "🚢"},
	{"bike", "🚲"},
	{"drive", "🚗"},
	{"walk", "🚶"},
	{"temple", "🛕"},
	{"church", "⛪"},
	{"mosque", "🕌"},
	{"fort", "🏰"},
	{"castle", "🏰"},
	{"palace", "🏰"},
	{"museum", "🏛️"},
	{"gallery", "🖼️"},
	{"beach", "🏖️"},
	{"hike", "🥾"},
	{"trek", "🥾"},
	{"mountain", "⛰️"},
	{"waterfall", "💧"},
	{"park", "🌳"},
	{"garden", "🌷"},
	{"safari", "🦁"},
	{"wildlife", "🦜"},
	{"snorkel", "🤿"},
	{"dive", "🤿"},
	{"kayak", "🛶"},
	{"surf", "🏄"},
	{"spa", "💆"},
	{"massage", "💆"},
	{"market", "🛍️"},
	{"shopping", "🛍️"},
	{"bar", "🍺"},
	{"pub", "🍺"},
	{"club", "🎶"},
	{"nightlife", "🌃"},
	{"show", "🎭"},
	{"concert", "🎵"},
	{"photo", "📷"},
	{"viewpoint", "🌄"},
	{"sunset", "🌅"},
	{"sunrise", "🌄"},
}

// iconFor picks the icon for an activity label.
func iconFor(label string) string {
	lower := strings.ToLower(label)
	for _, e := range iconTable {
		if strings.Contains(lower, e.keyword) {
			return e.icon
		}
	}
	return defaultIcon
}
