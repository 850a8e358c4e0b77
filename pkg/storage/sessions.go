package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/config"
)

// RedisSessionStore keeps session records in Redis. Each session is stored
// under its own key, and a per-user set indexes the tokens so that all of a
// user's sessions can be removed in one sweep.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRedisSessionStore(cfg config.Redis, log *zap.SugaredLogger) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisSessionStore{
		client: client,
		ttl:    time.Duration(cfg.SessionTTLHours) * time.Hour,
		log:    log.Named("sessions"),
	}
}

// Ping verifies the Redis connection on startup.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID uint) string {
	return fmt.Sprintf("user-sessions:%d", userID)
}

func (s *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), payload, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.Token)
	pipe.Expire(ctx, userSessionsKey(session.UserID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing session for user %d: %w", session.UserID, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	session, err := s.Get(ctx, token)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userSessionsKey(session.UserID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteAllForUser(ctx context.Context, userID uint) (int, error) {
	indexKey := userSessionsKey(userID)
	tokens, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("listing sessions for user %d: %w", userID, err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, indexKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("deleting sessions for user %d: %w", userID, err)
	}

	s.log.Infow("Deleted all sessions for user", "userID", userID, "count", len(tokens))
	return len(tokens), nil
}
