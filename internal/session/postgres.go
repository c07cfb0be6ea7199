package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/trip"
)

// PGStore persists sessions in PostgreSQL: a sessions row per session and
// append-only session_messages rows with sequence numbers.
//
// Safe for concurrent use.
type PGStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPGStore creates a PostgreSQL-backed session store.
func NewPGStore(pool *pgxpool.Pool, logger log.Logger) *PGStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PGStore{pool: pool, logger: logger.With("component", "session")}
}

// Put upserts the session row and appends any new messages.
//
// Messages are append-only: rows past the stored maximum sequence number
// are inserted, earlier ones are left untouched. The session upsert takes
// the row lock for the transaction, so concurrent writers from other
// processes cannot interleave sequence numbers.
func (s *PGStore) Put(ctx context.Context, sess *Session) error {
	reqJSON, planJSON, err := marshalState(sess)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, owner_id, request, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			owner_id   = EXCLUDED.owner_id,
			request    = EXCLUDED.request,
			plan       = EXCLUDED.plan,
			updated_at = EXCLUDED.updated_at`,
		sess.ID, sess.OwnerID, reqJSON, planJSON, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", sess.ID, err)
	}

	var maxSeq int
	err = tx.QueryRow(ctx, `
		SELECT coalesce(max(seq), 0) FROM session_messages
		WHERE session_id = $1`,
		sess.ID,
	).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence for %s: %w", sess.ID, err)
	}

	for i := maxSeq; i < len(sess.Messages); i++ {
		m := sess.Messages[i]
		invJSON, err := json.Marshal(m.Invocations)
		if err != nil {
			return fmt.Errorf("marshaling invocations: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO session_messages (session_id, seq, role, content, invocations, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sess.ID, i+1, string(m.Role), m.Content, invJSON, m.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting message %d for %s: %w", i+1, sess.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing session %s: %w", sess.ID, err)
	}
	return nil
}

// Get loads a session with its full message history in sequence order.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess := &Session{ID: id}

	var reqJSON, planJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT owner_id, request, plan, created_at, updated_at
		FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.OwnerID, &reqJSON, &planJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if err := unmarshalState(sess, reqJSON, planJSON); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT role, content, invocations, created_at
		FROM session_messages
		WHERE session_id = $1
		ORDER BY seq`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       Message
			role    string
			invJSON []byte
		)
		if err := rows.Scan(&role, &m.Content, &invJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		m.Role = Role(role)
		if len(invJSON) > 0 {
			if err := json.Unmarshal(invJSON, &m.Invocations); err != nil {
				s.logger.Warn("dropping unparsable invocations", "session_id", id, "error", err)
			}
		}
		sess.Messages = append(sess.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading message rows: %w", err)
	}
	return sess, nil
}

// Delete removes a session; messages cascade via the foreign key.
func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// EvictIdle removes sessions not updated since cutoff.
func (s *PGStore) EvictIdle(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evicting idle sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close is a no-op; the pool is managed by the caller.
func (*PGStore) Close() error { return nil }

// marshalState encodes the nullable request/plan columns.
func marshalState(sess *Session) (reqJSON, planJSON []byte, err error) {
	if sess.Request != nil {
		if reqJSON, err = json.Marshal(sess.Request); err != nil {
			return nil, nil, fmt.Errorf("marshaling request: %w", err)
		}
	}
	if sess.Plan != nil {
		if planJSON, err = json.Marshal(sess.Plan); err != nil {
			return nil, nil, fmt.Errorf("marshaling plan: %w", err)
		}
	}
	return reqJSON, planJSON, nil
}

// unmarshalState decodes the nullable request/plan columns.
func unmarshalState(sess *Session, reqJSON, planJSON []byte) error {
	if len(reqJSON) > 0 {
		var req trip.Request
		if err := json.Unmarshal(reqJSON, &req); err != nil {
			return fmt.Errorf("unmarshaling request: %w", err)
		}
		sess.Request = &req
	}
	if len(planJSON) > 0 {
		var plan trip.PlanResult
		if err := json.Unmarshal(planJSON, &plan); err != nil {
			return fmt.Errorf("unmarshaling plan: %w", err)
		}
		sess.Plan = &plan
	}
	return nil
}
