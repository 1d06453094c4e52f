package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/policy"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/result"
	"github.com/srgjo27/event_booking/internal/core/validation"
)

// finishBatch bounds how many ended events one finisher pass handles.
const finishBatch = 100

type EventService struct {
	base
}

func NewEventService(store ports.Store, cache ports.Cache, publisher ports.Publisher, log *zap.Logger, opts ...Option) *EventService {
	return &EventService{base: newBase(store, cache, publisher, log, opts)}
}

func (s *EventService) CreateEvent(ctx context.Context, actor *domain.User, params domain.EventParams) result.Result[*domain.Event] {
	event, err := s.createEvent(ctx, actor, params)
	if err != nil {
		return failure[*domain.Event](s.log, "create_event", err, actorField(actor))
	}

	s.invalidate(ctx, eventKey(event.ID), eventsAllKey)
	s.log.Info("event created",
		zap.String("event_id", event.ID.String()),
		actorField(actor),
		zap.Int("total_capacity", event.TotalCapacity),
	)
	return result.Ok(event)
}

func (s *EventService) createEvent(ctx context.Context, actor *domain.User, params domain.EventParams) (*domain.Event, error) {
	err := validation.Run(
		authorize(policy.ForEvent(actor, nil).Create(), domain.MsgNotAuthorizedCreateEvent),
		validation.UserValid(actor),
		validation.RequiredEventParams(params),
	)
	if err != nil {
		return nil, err
	}

	now := s.now()
	event := domain.NewEvent(actor.ID, params, now)
	if err := validation.Run(validation.EventFields(event), validation.FutureSchedule(event, now)); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		taken, err := tx.Events().NameTaken(ctx, event.Name, event.ID)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewValidationError(domain.MsgNameTaken)
		}
		return tx.Events().Create(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, actor *domain.User, id uuid.UUID, params domain.EventParams) result.Result[*domain.Event] {
	var event *domain.Event
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		e, err := tx.Events().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		err = validation.Run(
			authorize(policy.ForEvent(actor, e).Update(), domain.MsgNotAuthorizedUpdateEvent),
			validation.UserValid(actor),
			validation.EventValid(e),
			validation.EventActive(e, domain.MsgEventNotUpdatable),
		)
		if err != nil {
			return err
		}

		rename := params.NameChanged(e)
		if err := params.Apply(e, s.now()); err != nil {
			return err
		}
		if err := validation.Run(validation.EventFields(e)); err != nil {
			return err
		}
		if rename {
			taken, err := tx.Events().NameTaken(ctx, e.Name, e.ID)
			if err != nil {
				return err
			}
			if taken {
				return domain.NewValidationError(domain.MsgNameTaken)
			}
		}

		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return failure[*domain.Event](s.log, "update_event", err, actorField(actor), zap.String("event_id", id.String()))
	}

	s.invalidate(ctx, eventKey(id), eventsAllKey)
	return result.Ok(event)
}

// CancelEvent cancels an active event and, in the same transaction, every
// pending or booked ticket for it. Tickets already cancelled or refunded are
// left alone.
func (s *EventService) CancelEvent(ctx context.Context, actor *domain.User, id uuid.UUID) result.Result[*domain.Event] {
	var (
		event     *domain.Event
		cancelled []*domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		e, err := tx.Events().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		err = validation.Run(
			authorize(policy.ForEvent(actor, e).Cancel(), domain.MsgNotAuthorizedCancelEvent),
			validation.UserValid(actor),
			validation.EventValid(e),
			validation.EventCancelable(e),
		)
		if err != nil {
			return err
		}

		now := s.now()
		if err := e.Cancel(now); err != nil {
			return err
		}

		tickets, err := tx.Tickets().ListByEvent(ctx, e.ID, domain.TicketPending, domain.TicketBooked)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if err := t.Cancel(now); err != nil {
				return err
			}
			if err := tx.Tickets().Update(ctx, t); err != nil {
				return err
			}
		}
		if len(tickets) > 0 {
			if err := e.Release(len(tickets)); err != nil {
				return err
			}
		}

		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		event, cancelled = e, tickets
		return nil
	})
	if err != nil {
		return failure[*domain.Event](s.log, "cancel_event", err, actorField(actor), zap.String("event_id", id.String()))
	}

	keys := []string{eventKey(id), eventsAllKey, eventTicketsKey(id)}
	owners := make(map[uuid.UUID]bool)
	for _, t := range cancelled {
		keys = append(keys, ticketKey(t.ID))
		if !owners[t.UserID] {
			owners[t.UserID] = true
			keys = append(keys, userTicketsKey(t.UserID))
		}
	}
	s.invalidate(ctx, keys...)
	s.publish(ctx, domain.NewNotification(domain.NotificationEventCancelled, event, actor.ID, cancelled, s.now()))

	s.log.Info("event cancelled",
		zap.String("event_id", id.String()),
		actorField(actor),
		zap.Int("tickets_cancelled", len(cancelled)),
	)
	return result.Ok(event)
}

// FinishEvent lets the owner close an event whose end time has passed.
func (s *EventService) FinishEvent(ctx context.Context, actor *domain.User, id uuid.UUID) result.Result[*domain.Event] {
	var event *domain.Event
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		e, err := tx.Events().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		err = validation.Run(
			authorize(policy.ForEvent(actor, e).Finish(), domain.MsgNotAuthorizedFinishEvent),
			validation.UserValid(actor),
			validation.EventValid(e),
		)
		if err != nil {
			return err
		}

		if err := e.Finish(s.now()); err != nil {
			return err
		}
		if err := tx.Events().Update(ctx, e); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return failure[*domain.Event](s.log, "finish_event", err, actorField(actor), zap.String("event_id", id.String()))
	}

	s.invalidate(ctx, eventKey(id), eventsAllKey)
	return result.Ok(event)
}

// FinishEnded finishes every active event whose end time has passed and
// returns how many were finished.
func (s *EventService) FinishEnded(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.store.Events().ListFinishable(ctx, now, finishBatch)
	if err != nil {
		return 0, err
	}

	finished := 0
	for _, id := range ids {
		var changed bool
		err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
			e, err := tx.Events().GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// Cancelled or already finished by someone else since the scan.
			if err := e.Finish(now); err != nil {
				return nil
			}
			changed = true
			return tx.Events().Update(ctx, e)
		})
		if err != nil {
			s.log.Error("finish event failed", zap.String("event_id", id.String()), zap.Error(err))
			continue
		}
		if changed {
			finished++
			s.invalidate(ctx, eventKey(id), eventsAllKey)
		}
	}

	return finished, nil
}

// RunFinisher calls FinishEnded every interval until ctx is done.
func (s *EventService) RunFinisher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("event finisher started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("event finisher stopped")
			return
		case <-ticker.C:
			n, err := s.FinishEnded(ctx)
			if err != nil {
				s.log.Error("scan ended events failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("finished ended events", zap.Int("count", n))
			}
		}
	}
}
