package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// MemoryStore is an in-memory Store: a linear cosine scan over embedded
// passages. It backs tests and database-free deployments; the corpus is
// small enough that a flat scan is fine.
//
// Safe for concurrent use.
type MemoryStore struct {
	embedder ai.Embedder

	mu       sync.RWMutex
	passages map[string]Passage
	vectors  map[string][]float32
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder ai.Embedder) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		passages: make(map[string]Passage),
		vectors:  make(map[string][]float32),
	}
}

// Upsert inserts or replaces a passage, embedding its content.
func (s *MemoryStore) Upsert(ctx context.Context, p Passage) error {
	vec, err := embedText(ctx, s.embedder, p.Content)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", p.ID, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages[p.ID] = p
	s.vectors[p.ID] = vec
	return nil
}

// Search embeds the query and ranks all passages by cosine similarity.
func (s *MemoryStore) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	queryVec, err := embedText(queryCtx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	s.mu.RLock()
	results := make([]Result, 0, len(s.passages))
	for id, p := range s.passages {
		if cfg.destination != "" && p.Destination != cfg.destination {
			continue
		}
		results = append(results, Result{
			Passage:    p,
			Similarity: cosineSimilarity(queryVec, s.vectors[id]),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Passage.ID < results[j].Passage.ID
	})
	if len(results) > cfg.topK {
		results = results[:cfg.topK]
	}
	return results, nil
}

// Count returns the number of stored passages.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages), nil
}

// Delete removes a passage by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passages, id)
	delete(s.vectors, id)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
