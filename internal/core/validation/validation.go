// Package validation holds the named precondition checks shared by the
// services. Each check either passes or returns a *domain.Error with a fixed
// message; services compose them with Run in an explicit order.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/srgjo27/event_booking/internal/core/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return domain.Currency(fl.Field().String()).Valid()
	})
	return v
}

// Check is one named precondition.
type Check func() error

// Run evaluates checks in order and stops at the first failure.
func Run(checks ...Check) error {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Struct validates the field tags of v and returns readable messages in
// declaration order.
func Struct(v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " can't be blank"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "max":
		return field + " is too long (maximum is " + fe.Param() + ")"
	case "oneof":
		return fmt.Sprintf("%s %v is not included in the list", field, fe.Value())
	case "currency":
		return fmt.Sprintf("%v is not a valid currency", fe.Value())
	case "email":
		return field + " is invalid"
	default:
		return field + " is invalid"
	}
}

// EventErrors returns every field and cross-field problem of e.
func EventErrors(e *domain.Event) []string {
	msgs := Struct(e)
	if e.AvailableCapacity > e.TotalCapacity {
		msgs = append(msgs, domain.MsgCapacityExceedsTotal)
	}
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() && !e.EndTime.After(e.StartTime) {
		msgs = append(msgs, domain.MsgEndTimeBeforeStart)
	}
	return msgs
}

// EventFields reports the full field messages of e, joined.
func EventFields(e *domain.Event) Check {
	return func() error {
		if msgs := EventErrors(e); len(msgs) > 0 {
			return domain.NewValidationError(strings.Join(msgs, ", "))
		}
		return nil
	}
}

func EventValid(e *domain.Event) Check {
	return func() error {
		if e == nil || e.ID == uuid.Nil || len(EventErrors(e)) > 0 {
			return domain.NewValidationError(domain.MsgEventInvalid)
		}
		return nil
	}
}

func UserValid(u *domain.User) Check {
	return func() error {
		if u == nil || u.ID == uuid.Nil || len(Struct(u)) > 0 {
			return domain.NewValidationError(domain.MsgUserInvalid)
		}
		return nil
	}
}

func EventActive(e *domain.Event, message string) Check {
	return func() error {
		if !e.IsActive() {
			return domain.NewValidationError(message)
		}
		return nil
	}
}

func EventCancelable(e *domain.Event) Check {
	return func() error {
		if !e.CanCancel() {
			return domain.NewValidationError(domain.MsgEventNotCancelable)
		}
		return nil
	}
}

func TicketCount(count int) Check {
	return func() error {
		if count <= 0 {
			return domain.NewValidationError(domain.MsgTicketCount)
		}
		return nil
	}
}

func AvailableTickets(e *domain.Event, count int) Check {
	return func() error {
		if e.AvailableCapacity < count {
			return domain.NewValidationError(domain.MsgNotEnoughTickets)
		}
		return nil
	}
}

func TicketsPresent(ids []uuid.UUID) Check {
	return func() error {
		if len(ids) == 0 {
			return domain.NewValidationError(domain.MsgNoTickets)
		}
		return nil
	}
}

func TicketsBelongToEvent(tickets []*domain.Ticket, eventID uuid.UUID) Check {
	return func() error {
		for _, t := range tickets {
			if t.EventID != eventID {
				return domain.NewValidationError(domain.MsgTicketsWrongEvent)
			}
		}
		return nil
	}
}

func TicketsBelongToUser(tickets []*domain.Ticket, userID uuid.UUID) Check {
	return func() error {
		for _, t := range tickets {
			if t.UserID != userID {
				return domain.NewValidationError(domain.MsgTicketsWrongUser)
			}
		}
		return nil
	}
}

// NotCancelled rejects the whole batch if any member is already cancelled.
func NotCancelled(tickets []*domain.Ticket) Check {
	return func() error {
		for _, t := range tickets {
			if t.IsCancelled() {
				return domain.NewValidationError(domain.MsgTicketsAlreadyCancel)
			}
		}
		return nil
	}
}

func RequiredEventParams(p domain.EventParams) Check {
	return func() error {
		if missing := p.Missing(); len(missing) > 0 {
			return domain.NewValidationError(domain.MsgMissingEventParams + strings.Join(missing, ", "))
		}
		return nil
	}
}

// FutureSchedule applies on creation only: both ends must lie ahead of now.
func FutureSchedule(e *domain.Event, now time.Time) Check {
	return func() error {
		if !e.StartTime.After(now) {
			return domain.NewValidationError(domain.MsgStartTimeInPast)
		}
		if !e.EndTime.After(now) {
			return domain.NewValidationError(domain.MsgEndTimeInPast)
		}
		return nil
	}
}
