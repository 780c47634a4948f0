package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crm-assistant/internal/common/errors"
)

// RedisStore keeps conversation state in Redis so that any worker
// instance can serve the next turn of a conversation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, pendingTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: pendingTTL}
}

func pendingKey(tenantID, conversationID string) string {
	return fmt.Sprintf("assistant:pending:%s:%s", tenantID, conversationID)
}

func failuresKey(tenantID, conversationID string) string {
	return fmt.Sprintf("assistant:failures:%s:%s", tenantID, conversationID)
}

func (s *RedisStore) Pending(ctx context.Context, tenantID, conversationID string) (*PendingAction, error) {
	raw, err := s.client.Get(ctx, pendingKey(tenantID, conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return decodePending(raw)
}

func (s *RedisStore) StagePending(ctx context.Context, tenantID, conversationID string, action PendingAction) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	// Last write wins; the TTL bounds how long an unconfirmed action
	// can linger.
	if err := s.client.Set(ctx, pendingKey(tenantID, conversationID), raw, s.ttl).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

// TakePending atomically reads and deletes the pending slot. GETDEL
// guarantees at most one caller observes the action even under
// duplicate job delivery.
func (s *RedisStore) TakePending(ctx context.Context, tenantID, conversationID string) (*PendingAction, error) {
	raw, err := s.client.GetDel(ctx, pendingKey(tenantID, conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return decodePending(raw)
}

func (s *RedisStore) ClearPending(ctx context.Context, tenantID, conversationID string) error {
	if err := s.client.Del(ctx, pendingKey(tenantID, conversationID)).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (s *RedisStore) Failures(ctx context.Context, tenantID, conversationID string) (int, error) {
	n, err := s.client.Get(ctx, failuresKey(tenantID, conversationID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.NewSessionStoreFailedError(err)
	}
	return n, nil
}

func (s *RedisStore) BumpFailures(ctx context.Context, tenantID, conversationID string) (int, error) {
	key := failuresKey(tenantID, conversationID)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.NewSessionStoreFailedError(err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return 0, errors.NewSessionStoreFailedError(err)
	}
	return int(n), nil
}

func (s *RedisStore) ResetFailures(ctx context.Context, tenantID, conversationID string) error {
	if err := s.client.Del(ctx, failuresKey(tenantID, conversationID)).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func decodePending(raw string) (*PendingAction, error) {
	var action PendingAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return &action, nil
}
