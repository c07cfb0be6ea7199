package knowledge

import (
	"context"
	"math"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// axisEmbedder maps registered phrases to fixed vectors so cosine
// similarity between test inputs is fully controlled. Unregistered text
// embeds to a distinct corner of the space.
type axisEmbedder struct {
	vectors map[string][]float32
}

func newAxisEmbedder() *axisEmbedder {
	return &axisEmbedder{vectors: make(map[string][]float32)}
}

func (e *axisEmbedder) set(text string, vec []float32) { e.vectors[text] = vec }

func (e *axisEmbedder) Name() string { return "axis-embedder" }

func (e *axisEmbedder) Register(_ api.Registry) {}

func (e *axisEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		var text string
		for _, p := range doc.Content {
			text += p.Text
		}
		vec, ok := e.vectors[text]
		if !ok {
			vec = []float32{0.1, 0.1, 0.1}
		}
		embeddings[i] = &ai.Embedding{Embedding: vec}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func TestMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	emb := newAxisEmbedder()
	emb.set("metro advice", []float32{1, 0, 0})
	emb.set("food advice", []float32{0, 1, 0})
	emb.set("how do I ride the metro", []float32{0.9, 0.1, 0})

	store := NewMemoryStore(emb)
	ctx := context.Background()

	passages := []Passage{
		{ID: "p1", Destination: "paris", Topic: TopicTransport, Content: "metro advice"},
		{ID: "p2", Destination: "paris", Topic: TopicLocalTips, Content: "food advice"},
	}
	for _, p := range passages {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert(%s): %v", p.ID, err)
		}
	}

	results, err := store.Search(ctx, "how do I ride the metro")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Passage.ID != "p1" {
		t.Errorf("top result = %s, want p1 (transport passage)", results[0].Passage.ID)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("results not ordered by similarity: %v", results)
	}
}

func TestMemoryStoreDestinationFilter(t *testing.T) {
	store := NewMemoryStore(newAxisEmbedder())
	ctx := context.Background()

	for _, p := range []Passage{
		{ID: "paris-1", Destination: "paris", Topic: TopicLocalTips, Content: "paris tip"},
		{ID: "tokyo-1", Destination: "tokyo", Topic: TopicLocalTips, Content: "tokyo tip"},
	} {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	results, err := store.Search(ctx, "any tips?", WithDestination("tokyo"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Passage.ID != "tokyo-1" {
		t.Errorf("results = %v, want only tokyo-1", results)
	}
}

func TestMemoryStoreTopKClamp(t *testing.T) {
	store := NewMemoryStore(newAxisEmbedder())
	ctx := context.Background()

	if err := Seed(ctx, store); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	results, err := store.Search(ctx, "anything", WithTopK(1000))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) > maxTopK {
		t.Errorf("got %d results, want at most %d", len(results), maxTopK)
	}

	results, err = store.Search(ctx, "anything", WithTopK(-1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1 (clamped minimum)", len(results))
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store := NewMemoryStore(newAxisEmbedder())
	ctx := context.Background()

	if err := Seed(ctx, store); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	first, _ := store.Count(ctx)

	if err := Seed(ctx, store); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	second, _ := store.Count(ctx)

	if first != second {
		t.Errorf("count changed after reseed: %d -> %d", first, second)
	}
	if first == 0 {
		t.Error("seed loaded nothing")
	}
}

func TestSeededDestinations(t *testing.T) {
	dests := SeededDestinations()
	want := map[string]bool{"paris": false, "tokyo": false}
	for _, d := range dests {
		if d == "default" {
			t.Error("default must not be listed as a destination")
		}
		if _, ok := want[d]; ok {
			want[d] = true
		}
	}
	for d, seen := range want {
		if !seen {
			t.Errorf("destination %s missing from SeededDestinations", d)
		}
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(newAxisEmbedder())
	ctx := context.Background()

	if err := store.Upsert(ctx, Passage{ID: "x", Destination: "paris", Content: "c"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
	// Deleting a missing ID is not an error.
	if err := store.Delete(ctx, "x"); err != nil {
		t.Errorf("Delete of missing id: %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 0}, []float32{-1, 0}, -1},
		{[]float32{1, 0}, []float32{1, 0, 0}, 0}, // dimension mismatch
		{nil, nil, 0},
	}
	for _, tt := range tests {
		got := float64(cosineSimilarity(tt.a, tt.b))
		if math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("cosineSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}
