package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"TodolistBot/pkg/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "todolistbot:session:"

// RedisStorage keeps sessions as JSON values that expire after ttl of
// inactivity.
type RedisStorage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStorage(client redis.UniversalClient, ttl time.Duration) *RedisStorage {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStorage{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (s *RedisStorage) Get(ctx context.Context, chatID int64) (models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, nil
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func (s *RedisStorage) Set(ctx context.Context, chatID int64, session models.Session) error {
	if session.Idle() {
		return s.Clear(ctx, chatID)
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(chatID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStorage) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"backend": "redis",
		"ttl":     s.ttl.String(),
	}

	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			stats["error"] = err.Error()
			return stats
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	stats["sessions"] = count
	return stats
}
