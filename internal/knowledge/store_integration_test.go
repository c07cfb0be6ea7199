package knowledge_test

import (
	"context"
	"testing"
	"time"

	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/testutil"
)

const embeddingDim = 768

// vec768 builds a 768-dimensional vector with the given leading
// components, zero elsewhere.
func vec768(leading ...float32) []float32 {
	v := make([]float32, embeddingDim)
	copy(v, leading)
	return v
}

func TestPGStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := testutil.NewMockEmbedder(embeddingDim)
	store := knowledge.NewPGStore(db.Pool, embedder, nil)

	passage := knowledge.Passage{
		ID:          "goa-beaches-1",
		Destination: "goa",
		Topic:       "beaches",
		Content:     "Palolem beach is quietest before 9am.",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Upsert(ctx, passage); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count = %d, want 1", count)
	}

	// Identical content embeds identically, so searching for the
	// passage text must return it as the top hit.
	results, err := store.Search(ctx, passage.Content, knowledge.WithTopK(3))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search returned %d results, want 1", len(results))
	}
	got := results[0]
	if got.Passage.ID != passage.ID {
		t.Errorf("result ID = %q, want %q", got.Passage.ID, passage.ID)
	}
	if got.Passage.Destination != "goa" || got.Passage.Topic != "beaches" {
		t.Errorf("result metadata = %q/%q, want goa/beaches",
			got.Passage.Destination, got.Passage.Topic)
	}
	if got.Similarity < 0.99 {
		t.Errorf("self-similarity = %f, want ~1", got.Similarity)
	}
}

func TestPGStoreSearchRanksBySimilarity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := testutil.NewMockEmbedder(embeddingDim)

	// Pin vectors on orthogonal-ish axes so the ranking is known.
	embedder.SetVector("beach tips", vec768(1, 0, 0))
	embedder.SetVector("close match", vec768(0.9, 0.1, 0))
	embedder.SetVector("far match", vec768(0, 1, 0))

	store := knowledge.NewPGStore(db.Pool, embedder, nil)

	passages := []knowledge.Passage{
		{ID: "p-close", Destination: "goa", Topic: "beaches", Content: "close match"},
		{ID: "p-far", Destination: "goa", Topic: "visa", Content: "far match"},
	}
	for _, p := range passages {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert %s: %v", p.ID, err)
		}
	}

	results, err := store.Search(ctx, "beach tips", knowledge.WithTopK(2))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, want 2", len(results))
	}
	if results[0].Passage.ID != "p-close" {
		t.Errorf("top result = %q, want p-close", results[0].Passage.ID)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Errorf("similarities not descending: %f <= %f",
			results[0].Similarity, results[1].Similarity)
	}
}

func TestPGStoreDestinationFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := testutil.NewMockEmbedder(embeddingDim)
	store := knowledge.NewPGStore(db.Pool, embedder, nil)

	passages := []knowledge.Passage{
		{ID: "goa-1", Destination: "goa", Topic: "food", Content: "Try the fish thali."},
		{ID: "paris-1", Destination: "paris", Topic: "food", Content: "Bakeries open early."},
	}
	for _, p := range passages {
		if err := store.Upsert(ctx, p); err != nil {
			t.Fatalf("Upsert %s: %v", p.ID, err)
		}
	}

	results, err := store.Search(ctx, "where to eat",
		knowledge.WithDestination("paris"), knowledge.WithTopK(10))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search returned %d results, want 1", len(results))
	}
	if results[0].Passage.ID != "paris-1" {
		t.Errorf("result = %q, want paris-1", results[0].Passage.ID)
	}
}

func TestPGStoreUpsertReplacesAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := testutil.NewMockEmbedder(embeddingDim)
	store := knowledge.NewPGStore(db.Pool, embedder, nil)

	p := knowledge.Passage{ID: "p-1", Destination: "goa", Topic: "beaches", Content: "old content"}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	p.Content = "new content"
	p.Topic = "safety"
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatalf("re-Upsert: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count after re-upsert = %d, want 1", count)
	}

	results, err := store.Search(ctx, "new content", knowledge.WithTopK(1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Passage.Topic != "safety" {
		t.Fatalf("re-upsert did not replace passage: %+v", results)
	}

	if err := store.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "p-1"); err != nil {
		t.Fatalf("Delete of missing ID: %v", err)
	}
	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count after delete = %d, want 0", count)
	}
}

func TestPGStoreSeed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	embedder := testutil.NewMockEmbedder(embeddingDim)
	store := knowledge.NewPGStore(db.Pool, embedder, nil)

	if err := knowledge.Seed(ctx, store); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	first, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if first == 0 {
		t.Fatal("Seed stored no passages")
	}

	// Seeding again must not duplicate rows.
	if err := knowledge.Seed(ctx, store); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	second, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if second != first {
		t.Errorf("Count after re-seed = %d, want %d", second, first)
	}

	for _, dest := range knowledge.SeededDestinations() {
		results, err := store.Search(ctx, "local advice",
			knowledge.WithDestination(dest), knowledge.WithTopK(1))
		if err != nil {
			t.Fatalf("Search %s: %v", dest, err)
		}
		if len(results) == 0 {
			t.Errorf("no seeded passages for %s", dest)
		}
	}
}
