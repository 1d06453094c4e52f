package ports

import (
	"context"
	"time"

	"github.com/srgjo27/event_booking/internal/core/domain"
)

// Cache serves display reads. Booking and cancellation never consult it.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
	Close() error
}
