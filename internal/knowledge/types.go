package knowledge

import "time"

// Topic categorizes a passage within a destination's corpus.
type Topic string

// The bundled corpus topics.
const (
	TopicHiddenGems  Topic = "hidden_gems"
	TopicLocalTips   Topic = "local_tips"
	TopicMoneySaving Topic = "money_saving"
	TopicSafety      Topic = "safety"
	TopicBestTimes   Topic = "best_times"
	TopicAttraction  Topic = "attraction"
	TopicRestaurant  Topic = "restaurant"
	TopicTransport   Topic = "transport"
)

// Passage is one retrievable unit of destination knowledge.
type Passage struct {
	ID          string    // unique identifier
	Destination string    // lowercase destination key, "default" for generic advice
	Topic       Topic     // one of the Topic constants
	Content     string    // passage text, this is what gets embedded
	CreatedAt   time.Time // creation timestamp
}

// Result is a single search result with its similarity score.
type Result struct {
	Passage    Passage
	Similarity float32 // cosine similarity (0-1)
}

// SearchOption configures search behavior using the functional options
// pattern, as in context.WithTimeout or grpc.Dial.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK        int
	destination string
	timeout     time.Duration
}

// maxTopK caps result counts to keep prompt context bounded.
const maxTopK = 20

// WithTopK sets the maximum number of results to return.
// Default is 5; values are clamped to [1, 20].
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithDestination restricts search to one destination's passages.
func WithDestination(dest string) SearchOption {
	return func(c *searchConfig) {
		c.destination = dest
	}
}

// WithTimeout overrides the default 10s search deadline.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		c.timeout = d
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK < 1 {
		cfg.topK = 1
	}
	if cfg.topK > maxTopK {
		cfg.topK = maxTopK
	}
	return cfg
}
