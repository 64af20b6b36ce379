package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richcobrien1/TrafficJamz-sub002/internal/domain"
)

const snapshotKeyPrefix = "sync:session:%s:snapshot"

// RedisStore implements SessionStore using Redis, so multiple sync-service
// instances share snapshots and a restart does not lose session state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return fmt.Sprintf(snapshotKeyPrefix, sessionID)
}

func (s *RedisStore) Save(ctx context.Context, snap *domain.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, snapshotKey(snap.SessionID), data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap domain.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, snapshotKey(sessionID)).Err()
}
