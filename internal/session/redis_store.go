package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisSessionKey   = "accessfit-gateway-session"
	DefaultSessionTTL = 24 * 7 * time.Hour
)

// RedisStore keeps the session blob under a fixed key with a TTL, so an
// abandoned session eventually expires on its own.
type RedisStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (rs *RedisStore) Save(ctx context.Context, session Session) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := rs.redisClient.Set(ctx, redisSessionKey, sessionBytes, rs.ttl).Err(); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

func (rs *RedisStore) Load(ctx context.Context) (Session, error) {
	cmd := rs.redisClient.Get(ctx, redisSessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session from redis: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(cmd.Val()), &session); err != nil {
		return Session{}, &StaleSessionError{Reason: fmt.Sprintf("unparsable session blob: %s", err)}
	}
	return session, nil
}

func (rs *RedisStore) Delete(ctx context.Context) error {
	if err := rs.redisClient.Del(ctx, redisSessionKey).Err(); err != nil {
		return fmt.Errorf("delete session from redis: %w", err)
	}
	return nil
}
