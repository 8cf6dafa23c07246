package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionTTL bounds how long an abandoned workflow survives.
const sessionTTL = 30 * time.Minute

// RedisStore keeps sessions in redis so they survive process restarts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(tgUserID int64) string {
	return fmt.Sprintf("session:%d", tgUserID)
}

func (r *RedisStore) Get(ctx context.Context, tgUserID int64) (*Session, error) {
	data, err := r.client.Get(ctx, key(tgUserID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) Set(ctx context.Context, tgUserID int64, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(tgUserID), data, sessionTTL).Err()
}

func (r *RedisStore) Clear(ctx context.Context, tgUserID int64) error {
	return r.client.Del(ctx, key(tgUserID)).Err()
}
