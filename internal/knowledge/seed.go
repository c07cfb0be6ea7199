package knowledge

import (
	"context"
	"fmt"
)

// seedEntry is one destination's built-in advice, flattened into passages
// at seed time.
type seedEntry struct {
	destination string
	topic       Topic
	items       []string
}

// builtinCorpus is the bundled destination knowledge. The "default" entries
// answer queries about destinations with no dedicated corpus.
var builtinCorpus = []seedEntry{
	{"paris", TopicHiddenGems, []string{
		"Promenade Plantée - elevated park that inspired NYC's High Line, rarely crowded",
		"Canal Saint-Martin - trendy area with cute cafes, perfect for an afternoon stroll",
		"Rue Crémieux - colorful street perfect for photos, locals-only vibe",
		"Shakespeare and Company - historic bookstore, free readings upstairs",
		"Marché des Enfants Rouges - oldest covered market, amazing food stalls",
	}},
	{"paris", TopicLocalTips, []string{
		"Say 'Bonjour' when entering any shop - it's considered rude not to",
		"Metro tickets are cheaper in carnets (books of 10)",
		"Many museums are free on the first Sunday of each month",
		"Parisians eat dinner late (8-9 PM), lunch is usually 12-2 PM",
		"Tipping is not expected but rounding up is appreciated",
	}},
	{"paris", TopicMoneySaving, []string{
		"Paris Museum Pass saves money if visiting 3+ museums",
		"Picnic in parks - buy baguettes, cheese, and wine from local shops",
		"Walk! Paris is very walkable and you'll discover more",
		"Avoid restaurants right next to major attractions - walk 2 blocks for better prices",
	}},
	{"paris", TopicSafety, []string{
		"Watch for pickpockets at the Eiffel Tower, Louvre, and Metro",
		"Keep bags zipped and in front of you",
	}},
	{"paris", TopicBestTimes, []string{
		"Eiffel Tower: go at sunset for magical views and fewer crowds",
		"Louvre: Wednesday and Friday evenings - open late, much quieter",
		"Notre-Dame: early morning for photos without crowds",
		"Montmartre: weekday mornings to avoid weekend crowds",
	}},
	{"paris", TopicAttraction, []string{
		"Eiffel Tower: 2-3 hours, about $30, best in the morning or at sunset",
		"Louvre Museum: 3-4 hours, about $20, best in the morning",
		"Notre-Dame: 1-2 hours, free, best in the morning",
		"Montmartre & Sacré-Cœur: 3 hours, free, best in the afternoon",
		"Seine River Cruise: 1 hour, about $20, best in the evening",
	}},
	{"paris", TopicRestaurant, []string{
		"Le Petit Cler: French, mid-range, 7th arrondissement",
		"Bouillon Chartier: traditional, cheap, 9th arrondissement",
		"Pink Mamma: Italian, mid-range, 10th arrondissement",
	}},
	{"paris", TopicTransport, []string{
		"Metro pass €16.90 per day; most central areas are walkable",
	}},

	{"tokyo", TopicHiddenGems, []string{
		"Yanaka district - old Tokyo atmosphere, traditional shops, peaceful cemetery walks",
		"Shimokitazawa - vintage shops, indie cafes, bohemian vibe",
		"Golden Gai - tiny bars in Shinjuku, incredibly atmospheric",
		"Omoide Yokocho - yakitori stands, authentic old Tokyo",
		"Nezu Shrine - tunnel of torii gates, less crowded than Fushimi Inari",
	}},
	{"tokyo", TopicLocalTips, []string{
		"Always carry cash - many places don't accept cards",
		"Bow slightly when thanking, especially in traditional settings",
		"Don't eat while walking - find a spot to stand or sit",
		"Remove shoes when entering homes, some restaurants, and temples",
		"Trains are extremely punctual - if it says 10:03, it leaves at 10:03",
	}},
	{"tokyo", TopicMoneySaving, []string{
		"Convenience store food (7-Eleven, Lawson) is surprisingly good and cheap",
		"Get a Suica card for easy transport payment",
		"100-yen shops are great for snacks and souvenirs",
		"Lunch sets (teishoku) are much cheaper than dinner",
		"Free activities: shrines, temples, walking neighborhoods",
	}},
	{"tokyo", TopicSafety, []string{
		"Tokyo is extremely safe, even at night",
		"The biggest danger is getting lost in train stations",
	}},
	{"tokyo", TopicBestTimes, []string{
		"Senso-ji Temple: before 7 AM for empty photos",
		"Tsukiji Market: 8-10 AM for fresh food, avoid Mondays",
		"Shibuya Crossing: evening for full energy and lights",
		"teamLab: book 2+ weeks ahead, go on weekdays",
	}},
	{"tokyo", TopicAttraction, []string{
		"Senso-ji Temple: 2 hours, free, best early morning",
		"Meiji Shrine: 1-2 hours, free, best in the morning",
		"teamLab Borderless: 3 hours, about $30, best in the afternoon",
		"Tokyo Skytree: 2 hours, about $20, best at sunset",
		"Akihabara: 3 hours, cost varies, best in the afternoon",
	}},
	{"tokyo", TopicRestaurant, []string{
		"Ichiran Ramen: ramen, cheap, Shibuya",
		"Sushi Dai: sushi, mid-range, Tsukiji",
		"Gonpachi: izakaya, mid-range, Roppongi",
	}},
	{"tokyo", TopicTransport, []string{
		"Get a Suica card; a JR Pass pays off when traveling outside the city",
	}},

	{"default", TopicHiddenGems, []string{
		"Ask locals for their favorite neighborhood restaurant",
		"Visit the local market for an authentic experience",
		"Walk through residential areas for real local life",
	}},
	{"default", TopicLocalTips, []string{
		"Learn basic greetings in the local language",
		"Research local customs and etiquette before arriving",
		"Carry local currency for small purchases",
	}},
	{"default", TopicMoneySaving, []string{
		"Eat where locals eat, away from tourist areas",
		"Use public transportation",
		"Look for free walking tours",
	}},
	{"default", TopicSafety, []string{
		"Keep copies of important documents",
		"Register with your embassy for emergencies",
		"Know the local emergency numbers",
	}},
}

// Seed loads the bundled corpus into the store. Existing passages with the
// same IDs are replaced, so seeding is idempotent.
func Seed(ctx context.Context, store Store) error {
	for _, entry := range builtinCorpus {
		for i, content := range entry.items {
			p := Passage{
				ID:          fmt.Sprintf("%s-%s-%d", entry.destination, entry.topic, i+1),
				Destination: entry.destination,
				Topic:       entry.topic,
				Content:     content,
			}
			if err := store.Upsert(ctx, p); err != nil {
				return fmt.Errorf("seeding %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

// SeededDestinations lists the destinations with a dedicated corpus.
func SeededDestinations() []string {
	seen := make(map[string]struct{})
	var dests []string
	for _, e := range builtinCorpus {
		if e.destination == "default" {
			continue
		}
		if _, ok := seen[e.destination]; ok {
			continue
		}
		seen[e.destination] = struct{}{}
		dests = append(dests, e.destination)
	}
	return dests
}
