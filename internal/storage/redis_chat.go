package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xaenox/cash-copilot/internal/models"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisChatStore keeps each chat session as a Redis list of JSON messages
type RedisChatStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// NewRedisChatStore uses ttl as an idle expiry for sessions. Zero keeps them forever.
func NewRedisChatStore(client *redis.Client, ttl time.Duration) *RedisChatStore {
	return &RedisChatStore{client: client, ttl: ttl, now: time.Now}
}

func chatKey(sessionID string) string {
	return "copilot:chat:" + sessionID
}

func (s *RedisChatStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisChatStore) AppendChat(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = s.now().UTC()
		}
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("error encoding chat message: %w", err)
		}
		values = append(values, data)
	}

	key := chatKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error saving chat messages: %w", err)
	}
	return nil
}

func (s *RedisChatStore) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error loading chat history: %w", err)
	}

	history := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("error decoding chat message: %w", err)
		}
		history = append(history, m)
	}
	return history, nil
}

func (s *RedisChatStore) ClearChat(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, chatKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("error clearing chat history: %w", err)
	}
	return nil
}

func (s *RedisChatStore) Close() error {
	return s.client.Close()
}

// withChat routes chat calls to a separate store and everything else to the base storage
type withChat struct {
	Storage
	chat *RedisChatStore
}

// WithRedisChat returns base with its chat history moved to Redis
func WithRedisChat(base Storage, chat *RedisChatStore) Storage {
	return &withChat{Storage: base, chat: chat}
}

func (w *withChat) AppendChat(ctx context.Context, sessionID string, msgs ...models.ChatMessage) error {
	return w.chat.AppendChat(ctx, sessionID, msgs...)
}

func (w *withChat) ChatHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	return w.chat.ChatHistory(ctx, sessionID)
}

func (w *withChat) ClearChat(ctx context.Context, sessionID string) error {
	return w.chat.ClearChat(ctx, sessionID)
}

func (w *withChat) Close() error {
	chatErr := w.chat.Close()
	if err := w.Storage.Close(); err != nil {
		return err
	}
	return chatErr
}
