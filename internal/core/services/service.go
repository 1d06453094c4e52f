package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/policy"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/result"
	"github.com/srgjo27/event_booking/internal/core/validation"
)

const DefaultCacheTTL = 10 * time.Minute

const eventsAllKey = "events/all"

func eventKey(id uuid.UUID) string        { return "events/" + id.String() }
func ticketKey(id uuid.UUID) string       { return "tickets/" + id.String() }
func userTicketsKey(id uuid.UUID) string  { return "tickets/user/" + id.String() }
func eventTicketsKey(id uuid.UUID) string { return "tickets/event/" + id.String() }

type Option func(*base)

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(b *base) {
		if ttl > 0 {
			b.cacheTTL = ttl
		}
	}
}

// WithPendingCancellation lets buyers cancel tickets that are still pending,
// not only booked ones.
func WithPendingCancellation(allow bool) Option {
	return func(b *base) { b.tickets.AllowPendingCancel = allow }
}

// base holds the collaborators every service shares.
type base struct {
	store     ports.Store
	cache     ports.Cache
	publisher ports.Publisher
	log       *zap.Logger
	now       func() time.Time
	cacheTTL  time.Duration
	tickets   policy.TicketPolicy
}

func newBase(store ports.Store, cache ports.Cache, publisher ports.Publisher, log *zap.Logger, opts []Option) base {
	b := base{
		store:     store,
		cache:     cache,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		cacheTTL:  DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func authorize(allowed bool, message string) validation.Check {
	return func() error {
		return policy.Authorize(allowed, message)
	}
}

// invalidate drops cached reads after a committed write. A cache outage
// only costs staleness, so errors are logged.
func (b *base) invalidate(ctx context.Context, keys ...string) {
	if err := b.cache.Invalidate(ctx, keys...); err != nil {
		b.log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (b *base) publish(ctx context.Context, n domain.Notification) {
	if err := b.publisher.Publish(ctx, n); err != nil {
		b.log.Warn("publish notification failed",
			zap.String("type", string(n.Type)),
			zap.String("event_id", n.EventID.String()),
			zap.Error(err),
		)
	}
}

// failure converts err into a failed Result. Infrastructure errors are
// logged apart from business-rule rejections.
func failure[T any](log *zap.Logger, op string, err error, fields ...zap.Field) result.Result[T] {
	kind := domain.KindOf(err)
	fields = append(fields, zap.String("op", op), zap.String("kind", string(kind)))

	switch {
	case errors.Is(err, domain.ErrCapacityOverflow):
		log.Error("inventory invariant violated", append(fields, zap.Error(err))...)
	case kind == domain.KindInternal:
		log.Error("operation failed", append(fields, zap.Error(err))...)
	default:
		log.Info("operation rejected", append(fields, zap.String("reason", err.Error()))...)
	}

	return result.FromError[T](err)
}

// cached reads key from the cache or fills it from load.
func cached[T any](ctx context.Context, b *base, key string, load func() (T, error)) (T, error) {
	var v T
	hit, err := b.cache.Get(ctx, key, &v)
	if err != nil {
		b.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return v, nil
	}

	v, err = load()
	if err != nil {
		return v, err
	}

	if err := b.cache.Set(ctx, key, v, b.cacheTTL); err != nil {
		b.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func actorField(actor *domain.User) zap.Field {
	if actor == nil {
		return zap.String("user_id", "")
	}
	return zap.String("user_id", actor.ID.String())
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
