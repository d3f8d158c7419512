package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds the connection settings for the Redis adapter.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RedisAdapter relays frames over Redis pub/sub channels.
type RedisAdapter struct {
	client *redis.Client
	sub    *redis.PubSub
}

// NewRedisAdapter connects and pings the broker. A broker that cannot be
// reached is reported as ErrUnavailable so the caller can decide between
// fail-fast and single-process degradation.
func NewRedisAdapter(ctx context.Context, cfg RedisConfig) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	log.Info().Str("module", "pubsub.redis").Str("addr", cfg.Addr).Msg("connected")
	return &RedisAdapter{client: client}, nil
}

func (a *RedisAdapter) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := a.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (a *RedisAdapter) Subscribe(ctx context.Context, pattern string, h Handler) error {
	sub := a.client.PSubscribe(ctx, pattern)
	// Wait for the subscription to be active before reporting success.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	a.sub = sub

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					log.Warn().Str("module", "pubsub.redis").Msg("subscription channel closed")
					return
				}
				h(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (a *RedisAdapter) Close() error {
	if a.sub != nil {
		_ = a.sub.Close()
	}
	return a.client.Close()
}
