package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/ports"
)

type eventRepository struct {
	store *Store
	tx    *transaction
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.save(event)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	if _, ok := r.load(event.ID); !ok {
		return domain.NewNotFoundError("Event", event.ID)
	}
	return r.save(event)
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, ok := r.load(id)
	if !ok {
		return nil, domain.NewNotFoundError("Event", id)
	}
	return e, nil
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *eventRepository) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	for _, e := range r.all() {
		if e.ID != exclude && strings.EqualFold(e.Name, strings.TrimSpace(name)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *eventRepository) List(ctx context.Context, filter ports.EventFilter) ([]*domain.Event, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	var events []*domain.Event
	for _, e := range r.all() {
		if filter.State != "" && e.State != filter.State {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if filter.Upcoming && !e.StartTime.After(now) {
			continue
		}
		if filter.WithAvailable && e.AvailableCapacity <= 0 {
			continue
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (r *eventRepository) ListFinishable(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, e := range r.all() {
		if limit > 0 && len(ids) >= limit {
			break
		}
		if e.State == domain.EventActive && !e.EndTime.After(now) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (r *eventRepository) load(id uuid.UUID) (*domain.Event, bool) {
	if r.tx != nil {
		if e, ok := r.tx.events[id]; ok {
			return cloneEvent(e), true
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.events[id]
	if !ok {
		return nil, false
	}
	return cloneEvent(e), true
}

func (r *eventRepository) save(e *domain.Event) error {
	if r.tx != nil {
		r.tx.stageEvent(e)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.checkEvent(e); err != nil {
		return err
	}
	r.store.putEvent(e)
	return nil
}

// all returns committed events overlaid with this transaction's staged ones.
func (r *eventRepository) all() []*domain.Event {
	r.store.mu.RLock()
	events := make([]*domain.Event, 0, len(r.store.eventOrder))
	seen := make(map[uuid.UUID]bool, len(r.store.eventOrder))
	for _, id := range r.store.eventOrder {
		e := r.store.events[id]
		if r.tx != nil {
			if staged, ok := r.tx.events[id]; ok {
				e = staged
			}
		}
		seen[id] = true
		events = append(events, cloneEvent(e))
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		for _, id := range r.tx.eventOrder {
			if !seen[id] {
				events = append(events, cloneEvent(r.tx.events[id]))
			}
		}
	}
	return events
}
