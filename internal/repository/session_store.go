package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
)

const (
	sessionKeyPrefix     = "session:"
	sessionEventsChannel = "session:events"
)

// ErrSessionNotFound is returned for unknown, revoked or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// RedisSessionStore keeps sessions in Redis with a TTL matching their expiry and broadcasts
// changes over pub/sub so every API instance sees logins and logouts.
type RedisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionStore constructs the store.
func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) *RedisSessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionStore{client: client, logger: logger}
}

// Save persists session until its expiry and announces it.
func (s *RedisSessionStore) Save(ctx context.Context, session models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	s.publish(ctx, models.SessionEvent{Kind: models.SessionEventCreated, SessionID: session.ID})
	return nil
}

// Get loads a live session.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete revokes a session and announces it.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	s.publish(ctx, models.SessionEvent{Kind: models.SessionEventRevoked, SessionID: id})
	return nil
}

// Subscribe streams session events until ctx is cancelled.
func (s *RedisSessionStore) Subscribe(ctx context.Context) (<-chan models.SessionEvent, error) {
	pubsub := s.client.Subscribe(ctx, sessionEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan models.SessionEvent, 16)
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event models.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("ignoring malformed session event", zap.Error(err))
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisSessionStore) publish(ctx context.Context, event models.SessionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, sessionEventsChannel, payload).Err(); err != nil {
		s.logger.Warn("publish session event failed", zap.String("session_id", event.SessionID), zap.Error(err))
	}
}
