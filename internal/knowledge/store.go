// Package knowledge manages the destination knowledge base: retrievable
// passages of local advice, searched by vector similarity.
//
// Two Store implementations exist: PGStore backed by PostgreSQL + pgvector
// for production, and MemoryStore for tests and database-free deployments.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/planit-dev/planit/internal/log"
)

// Store is the knowledge base contract consumed by the planner and tools.
type Store interface {
	// Upsert inserts or replaces a passage, embedding its content.
	Upsert(ctx context.Context, p Passage) error

	// Search returns the passages most similar to the query,
	// ordered by descending similarity.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error)

	// Count returns the number of stored passages.
	Count(ctx context.Context) (int, error)

	// Delete removes a passage by ID. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
}

// Querier is the subset of pgxpool.Pool the store needs.
// Defined on the consumer side so tests can substitute a fake.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore manages passages in PostgreSQL with pgvector similarity search.
// Safe for concurrent use.
type PGStore struct {
	db       Querier
	embedder ai.Embedder
	logger   log.Logger
}

// NewPGStore creates a PostgreSQL-backed store.
func NewPGStore(db Querier, embedder ai.Embedder, logger log.Logger) *PGStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PGStore{
		db:       db,
		embedder: embedder,
		logger:   logger.With("component", "knowledge"),
	}
}

// Upsert inserts or replaces a passage, embedding its content first.
func (s *PGStore) Upsert(ctx context.Context, p Passage) error {
	vec, err := embedText(ctx, s.embedder, p.Content)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", p.ID, err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO passages (id, destination, topic, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			destination = EXCLUDED.destination,
			topic       = EXCLUDED.topic,
			content     = EXCLUDED.content,
			embedding   = EXCLUDED.embedding,
			created_at  = EXCLUDED.created_at`,
		p.ID, p.Destination, p.Topic, p.Content, pgvector.NewVector(vec), createdAt,
	)
	if err != nil {
		return fmt.Errorf("upserting passage %q: %w", p.ID, err)
	}

	s.logger.Debug("upserted passage", "id", p.ID, "destination", p.Destination, "topic", p.Topic)
	return nil
}

// Search embeds the query and runs a cosine-distance scan, optionally
// restricted to one destination. A timeout guards against long vector
// scans blocking the request path.
func (s *PGStore) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vec, err := embedText(queryCtx, s.embedder, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := pgvector.NewVector(vec)

	var rows pgx.Rows
	if cfg.destination != "" {
		rows, err = s.db.Query(queryCtx, `
			SELECT id, destination, topic, content, created_at,
			       1 - (embedding <=> $1) AS similarity
			FROM passages
			WHERE destination = $2
			ORDER BY embedding <=> $1
			LIMIT $3`,
			queryVec, cfg.destination, cfg.topK,
		)
	} else {
		rows, err = s.db.Query(queryCtx, `
			SELECT id, destination, topic, content, created_at,
			       1 - (embedding <=> $1) AS similarity
			FROM passages
			ORDER BY embedding <=> $1
			LIMIT $2`,
			queryVec, cfg.topK,
		)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Passage.ID, &r.Passage.Destination, &r.Passage.Topic,
			&r.Passage.Content, &r.Passage.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search rows: %w", err)
	}
	return results, nil
}

// Count returns the number of stored passages.
func (s *PGStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM passages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("passage count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// Delete removes a passage by ID.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM passages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting passage %q: %w", id, err)
	}
	s.logger.Debug("deleted passage", "id", id)
	return nil
}
