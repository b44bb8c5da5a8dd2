package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"family-llm/internal/domain"
)

// RedisStore persiste cada clave de la sesion como un valor JSON con TTL,
// mas una clave _meta con la identidad del caller. Backend de produccion.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) redisKey(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}

func (s *RedisStore) Create(ctx context.Context, sessionID, userID string) error {
	meta := map[string]string{
		"user_id":    userID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	return s.writeKey(ctx, sessionID, keyMeta, meta)
}

func (s *RedisStore) SaveProfile(ctx context.Context, sessionID string, profile *domain.UserProfile) error {
	return s.writeKey(ctx, sessionID, KeyProfile, profile)
}

func (s *RedisStore) SaveHistory(ctx context.Context, sessionID string, history []domain.ConversationEntry) error {
	return s.writeKey(ctx, sessionID, KeyHistory, history)
}

func (s *RedisStore) SaveFamilyLog(ctx context.Context, sessionID string, log []domain.ConversationEntry) error {
	return s.writeKey(ctx, sessionID, KeyFamilyLog, log)
}

func (s *RedisStore) SavePlan(ctx context.Context, sessionID string, plan *domain.FamilyPlan) error {
	return s.writeKey(ctx, sessionID, KeyPlan, plan)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	exists, err := s.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	data := &SessionData{}

	var meta map[string]string
	if ok, err := s.readKey(ctx, sessionID, keyMeta, &meta); err != nil {
		return nil, err
	} else if ok {
		data.UserID = meta["user_id"]
	}
	if _, err := s.readKey(ctx, sessionID, KeyProfile, &data.Profile); err != nil {
		return nil, err
	}
	if _, err := s.readKey(ctx, sessionID, KeyHistory, &data.History); err != nil {
		return nil, err
	}
	if _, err := s.readKey(ctx, sessionID, KeyFamilyLog, &data.FamilyLog); err != nil {
		return nil, err
	}
	if _, err := s.readKey(ctx, sessionID, KeyPlan, &data.Plan); err != nil {
		return nil, err
	}

	return data, nil
}

func (s *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	count, err := s.client.Exists(ctx, s.redisKey(sessionID, keyMeta)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return count > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	keys := []string{
		s.redisKey(sessionID, keyMeta),
		s.redisKey(sessionID, KeyProfile),
		s.redisKey(sessionID, KeyHistory),
		s.redisKey(sessionID, KeyFamilyLog),
		s.redisKey(sessionID, KeyPlan),
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *RedisStore) writeKey(ctx context.Context, sessionID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.redisKey(sessionID, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) readKey(ctx context.Context, sessionID, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, s.redisKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
