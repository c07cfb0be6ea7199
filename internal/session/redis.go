package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/planit-dev/planit/internal/log"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "planit:session:"

// RedisStore persists sessions as JSON blobs with a per-key TTL, so idle
// eviction is delegated to Redis expiry.
//
// Safe for concurrent use.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedisStore creates a Redis-backed session store. Each Put refreshes
// the key's TTL, so active sessions never expire mid-conversation.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger log.Logger) *RedisStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "session"),
	}
}

func sessionKey(id uuid.UUID) string { return keyPrefix + id.String() }

// Put stores the session blob and refreshes its TTL.
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing session %s: %w", sess.ID, err)
	}
	return nil
}

// Get loads a session blob.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshaling session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// EvictIdle is a no-op: key TTLs already expire idle sessions.
func (*RedisStore) EvictIdle(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
