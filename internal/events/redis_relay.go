package events

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher is the part of *redis.Client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay fans committed events out on a Redis pub/sub channel so other
// NOC consoles can refresh.
type RedisRelay struct {
	client  Publisher
	channel string
}

// NewRedisRelay constructs a relay publishing on channel.
func NewRedisRelay(client Publisher, channel string) *RedisRelay {
	return &RedisRelay{client: client, channel: channel}
}

// Register subscribes the relay to every event type.
func (r *RedisRelay) Register(dispatcher Dispatcher) {
	for _, eventType := range AllEventTypes() {
		dispatcher.Subscribe(eventType, r.Handle)
	}
}

// Handle publishes the JSON encoded event.
func (r *RedisRelay) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
