// Package cache provides the shared cache used for webhook deduplication.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Provider is the interface both cache backends satisfy.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey builds the dedup key for a delivered gateway event. PayGreen
// events carry no event id, so the key combines event type and payment
// order id.
func WebhookKey(eventType, paymentOrderID string) string {
	return fmt.Sprintf("webhook:paygreen:%s:%s", eventType, paymentOrderID)
}
