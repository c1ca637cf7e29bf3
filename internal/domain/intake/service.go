package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
)

// Authorizer resolves which subjects an actor may read or act on.
type Authorizer interface {
	Authorize(ctx context.Context, actorID uuid.UUID, role string, target *uuid.UUID) (guardian.Scope, error)
}

type Service struct {
	events Repository
	access Authorizer
}

func NewService(events Repository, access Authorizer) *Service {
	return &Service{events: events, access: access}
}

// LogDose records a scheduled dose instance for a subject the actor may act
// on. The event starts unresolved.
func (s *Service) LogDose(ctx context.Context, actorID uuid.UUID, role string, e *Event) (*Event, error) {
	if e.UserID == uuid.Nil {
		return nil, fmt.Errorf("user_id is required")
	}
	if e.PrescriptionID == uuid.Nil {
		return nil, fmt.Errorf("prescription_id is required")
	}
	if e.MedicineID == uuid.Nil {
		return nil, fmt.Errorf("medicine_id is required")
	}
	if e.ReminderTime.IsZero() {
		return nil, fmt.Errorf("reminder_time is required")
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &e.UserID); err != nil {
		return nil, err
	}
	e.Action = ActionUnresolved
	e.ActionTime = nil
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Resolve records the outcome of a dose. The event is looked up first so a
// missing id surfaces as not-found rather than forbidden.
func (s *Service) Resolve(ctx context.Context, actorID uuid.UUID, role string, eventID uuid.UUID, action Action) (*Event, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &e.UserID); err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.events.Resolve(ctx, eventID, action, now); err != nil {
		return nil, err
	}
	e.Action = action
	e.ActionTime = &now
	return e, nil
}

// ListDay returns one subject's events for a single calendar day.
func (s *Service) ListDay(ctx context.Context, actorID uuid.UUID, role string, subject uuid.UUID, day time.Time) ([]*Event, error) {
	if _, err := s.access.Authorize(ctx, actorID, role, &subject); err != nil {
		return nil, err
	}
	return s.events.QueryDay(ctx, subject, day)
}

// List returns events in the actor's authorized scope. A nil target resolves
// to the implicit self-plus-wards scope for non-admins.
func (s *Service) List(ctx context.Context, actorID uuid.UUID, role string, target *uuid.UUID, start, end *time.Time, medicineID *uuid.UUID) ([]*Event, error) {
	scope, err := s.access.Authorize(ctx, actorID, role, target)
	if err != nil {
		return nil, err
	}
	return s.events.Query(ctx, Filter{
		Subjects:   scope,
		Start:      start,
		End:        end,
		MedicineID: medicineID,
	})
}
