package planner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDestination indicates the gazetteer has no entry for the
// requested destination. A soft failure: planning proceeds without
// geographic context.
var ErrUnknownDestination = errors.New("unknown destination")

// Place is a resolved destination.
type Place struct {
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Population int     `json:"population"`

	// Multiplier adjusts the baseline daily cost table for the local
	// price level. 1.0 is the global average.
	Multiplier float64 `json:"cost_multiplier"`
}

// gazetteer is the built-in place index, keyed by lowercase name.
// Ambiguous names carry multiple entries; resolution picks the most
// populous one. No network lookup happens at plan time.
var gazetteer = map[string][]Place{
	"paris": {
		{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Population: 2_161_000, Multiplier: 1.25},
		{Name: "Paris", Country: "United States", Lat: 33.6609, Lon: -95.5555, Population: 24_000, Multiplier: 0.9},
	},
	"tokyo": {
		{Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503, Population: 13_960_000, Multiplier: 1.2},
	},
	"london": {
		{Name: "London", Country: "United Kingdom", Lat: 51.5074, Lon: -0.1278, Population: 8_982_000, Multiplier: 1.3},
		{Name: "London", Country: "Canada", Lat: 42.9849, Lon: -81.2453, Population: 404_000, Multiplier: 1.0},
	},
	"rome": {
		{Name: "Rome", Country: "Italy", Lat: 41.9028, Lon: 12.4964, Population: 2_873_000, Multiplier: 1.1},
		{Name: "Rome", Country: "United States", Lat: 34.257, Lon: -85.1647, Population: 37_000, Multiplier: 0.85},
	},
	"new york": {
		{Name: "New York", Country: "United States", Lat: 40.7128, Lon: -74.006, Population: 8_336_000, Multiplier: 1.45},
	},
	"barcelona": {
		{Name: "Barcelona", Country: "Spain", Lat: 41.3874, Lon: 2.1686, Population: 1_620_000, Multiplier: 1.05},
	},
	"kyoto": {
		{Name: "Kyoto", Country: "Japan", Lat: 35.0116, Lon: 135.7681, Population: 1_475_000, Multiplier: 1.1},
	},
	"sydney": {
		{Name: "Sydney", Country: "Australia", Lat: -33.8688, Lon: 151.2093, Population: 5_312_000, Multiplier: 1.2},
	},
	"bali": {
		{Name: "Bali", Country: "Indonesia", Lat: -8.3405, Lon: 115.092, Population: 4_317_000, Multiplier: 0.55},
	},
	"goa": {
		{Name: "Goa", Country: "India", Lat: 15.2993, Lon: 74.124, Population: 1_459_000, Multiplier: 0.45},
	},
	"mysore": {
		{Name: "Mysore", Country: "India", Lat: 12.2958, Lon: 76.6394, Population: 920_000, Multiplier: 0.4},
	},
	"amsterdam": {
		{Name: "Amsterdam", Country: "Netherlands", Lat: 52.3676, Lon: 4.9041, Population: 872_000, Multiplier: 1.25},
	},
	"lisbon": {
		{Name: "Lisbon", Country: "Portugal", Lat: 38.7223, Lon: -9.1393, Population: 545_000, Multiplier: 0.95},
	},
	"bangkok": {
		{Name: "Bangkok", Country: "Thailand", Lat: 13.7563, Lon: 100.5018, Population: 10_539_000, Multiplier: 0.6},
	},
	"istanbul": {
		{Name: "Istanbul", Country: "Turkey", Lat: 41.0082, Lon: 28.9784, Population: 15_460_000, Multiplier: 0.7},
	},
	"prague": {
		{Name: "Prague", Country: "Czechia", Lat: 50.0755, Lon: 14.4378, Population: 1_309_000, Multiplier: 0.9},
	},
	"dublin": {
		{Name: "Dublin", Country: "Ireland", Lat: 53.3498, Lon: -6.2603, Population: 554_000, Multiplier: 1.2},
		{Name: "Dublin", Country: "United States", Lat: 37.7022, Lon: -121.9358, Population: 72_000, Multiplier: 1.3},
	},
	"rio de janeiro": {
		{Name: "Rio de Janeiro", Country: "Brazil", Lat: -22.9068, Lon: -43.1729, Population: 6_748_000, Multiplier: 0.75},
	},
	"cairo": {
		{Name: "Cairo", Country: "Egypt", Lat: 30.0444, Lon: 31.2357, Population: 9_540_000, Multiplier: 0.5},
	},
	"marrakech": {
		{Name: "Marrakech", Country: "Morocco", Lat: 31.6295, Lon: -7.9811, Population: 928_000, Multiplier: 0.55},
	},
}

// ResolvePlace looks a destination up in the gazetteer. Matching is
// case-insensitive on the full name; "paris, france" also matches via its
// leading segment. Ambiguous names resolve to the most populous entry.
func ResolvePlace(destination string) (Place, error) {
	key := strings.ToLower(strings.TrimSpace(destination))
	if key == "" {
		return Place{}, fmt.Errorf("%w: empty destination", ErrUnknownDestination)
	}

	candidates, ok := gazetteer[key]
	if !ok {
		// "Paris, France" style input: try the part before the comma and
		// use the rest to disambiguate.
		name, qualifier, found := strings.Cut(key, ",")
		if !found {
			return Place{}, fmt.Errorf("%w: %q", ErrUnknownDestination, destination)
		}
		candidates, ok = gazetteer[strings.TrimSpace(name)]
		if !ok {
			return Place{}, fmt.Errorf("%w: %q", ErrUnknownDestination, destination)
		}
		qualifier = strings.TrimSpace(qualifier)
		for _, p := range candidates {
			if strings.EqualFold(p.Country, qualifier) {
				return p, nil
			}
		}
	}

	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.Population > best.Population {
			best = p
		}
	}
	return best, nil
}
