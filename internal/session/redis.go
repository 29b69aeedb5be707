package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"emili/internal/models"
)

// RedisBus carries submissions out on <prefix>:user and replies in on
// <prefix>:assistant.
type RedisBus struct {
	client redis.UniversalClient
	prefix string
	log    *slog.Logger
}

func NewRedisBus(client redis.UniversalClient, prefix string) *RedisBus {
	return &RedisBus{
		client: client,
		prefix: prefix,
		log:    slog.With("component", "redis-bus"),
	}
}

// Dial connects and pings addr. An empty addr returns (nil, nil).
func Dial(ctx context.Context, addr string) (redis.UniversalClient, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func (b *RedisBus) UserChannel() string      { return b.prefix + ":user" }
func (b *RedisBus) AssistantChannel() string { return b.prefix + ":assistant" }

func (b *RedisBus) Publish(ctx context.Context, sub Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := b.client.Publish(ctx, b.UserChannel(), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan models.Message, error) {
	pubsub := b.client.Subscribe(ctx, b.AssistantChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan models.Message, 16)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				reply, err := decodeReply(msg.Payload)
				if err != nil {
					b.log.Warn("invalid payload", "error", err)
					continue
				}
				select {
				case out <- reply:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// decodeReply accepts a JSON message or falls back to treating the
// payload as plain assistant text.
func decodeReply(payload string) (models.Message, error) {
	var msg models.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		if len(payload) > 0 && payload[0] == '{' {
			return models.Message{}, err
		}
		return models.Message{Role: models.RoleAssistant, Content: payload}, nil
	}
	if msg.Role == "" {
		msg.Role = models.RoleAssistant
	}
	return msg, nil
}
