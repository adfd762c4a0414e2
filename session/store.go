package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps any Redis transport failure so callers can
// distinguish "snapshot missing" from "store unreachable".
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrSnapshotCorrupt is returned when a stored snapshot cannot be decoded.
var ErrSnapshotCorrupt = errors.New("session snapshot corrupt")

// Store persists session snapshots in Redis so a process restart can
// rehydrate its sessions instead of forcing every principal through a fresh
// login. The Store never owns live state; it only sees snapshots handed to
// it by the Manager.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a snapshot [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gsess"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Save persists a snapshot with the given TTL. The TTL should track the
// remaining refresh-token lifetime; a snapshot that outlives its refresh
// credential is useless.
func (s *Store) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves a snapshot by session ID. Returns redis.Nil when no snapshot
// exists, [ErrSnapshotCorrupt] when the blob does not decode, and
// [ErrRedisUnavailable] on transport failure.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	sess.ID = sessionID

	return &sess, nil
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
