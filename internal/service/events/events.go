package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartmes/internal/config"
)

const (
	EntityWorkOrder = "workorder"
	EntityDowntime  = "downtime"
)

// Event is a state change broadcast to shop-floor listeners.
type Event struct {
	Entity    string    `json:"entity"`
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPublisher fans events out over Redis pub/sub, one channel per entity.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(cfg config.Redis) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("events.NewRedisPublisher: ping %s: %w", cfg.Addr, err)
	}

	return &RedisPublisher{rdb: rdb, prefix: cfg.ChannelPrefix}, nil
}

func (p *RedisPublisher) Channel(entity string) string {
	return Channel(p.prefix, entity)
}

func Channel(prefix, entity string) string {
	if prefix == "" {
		return entity
	}
	return prefix + ":" + entity
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.Publish: marshal: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.Channel(e.Entity), payload).Err(); err != nil {
		return fmt.Errorf("events.Publish: %s %s: %w", e.Entity, e.ID, err)
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
