package prescription

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
	rx     Repository
	access Authorizer
}

func NewService(rx Repository, access Authorizer) *Service {
	return &Service{rx: rx, access: access}
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, role string, p *Prescription) (*Prescription, error) {
	if p.UserID == uuid.Nil {
		return nil, fmt.Errorf("user_id is required")
	}
	if p.MedicineID == uuid.Nil {
		return nil, fmt.Errorf("medicine_id is required")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, fmt.Errorf("end_date precedes start_date")
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return nil, err
	}
	if err := s.rx.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) (*Prescription, error) {
	p, err := s.rx.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, actorID uuid.UUID, role string, p *Prescription) (*Prescription, error) {
	existing, err := s.rx.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &existing.UserID); err != nil {
		return nil, err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return nil, fmt.Errorf("end_date precedes start_date")
	}
	p.UserID = existing.UserID
	p.MedicineID = existing.MedicineID
	if err := s.rx.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.rx.GetByID(ctx, p.ID)
}

func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) error {
	p, err := s.rx.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return err
	}
	return s.rx.Delete(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, actorID uuid.UUID, role string, target uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	if _, err := s.access.Authorize(ctx, actorID, role, &target); err != nil {
		return nil, 0, err
	}
	return s.rx.ListByUser(ctx, target, limit, offset)
}

// AddSchedule attaches a fixed time-of-day slot to a prescription the actor
// may manage. IntakeTime must be a 24h "HH:MM" string.
func (s *Service) AddSchedule(ctx context.Context, actorID uuid.UUID, role string, sc *Schedule) (*Schedule, error) {
	if _, err := time.Parse("15:04", sc.IntakeTime); err != nil {
		return nil, fmt.Errorf("invalid intake_time %q, want HH:MM", sc.IntakeTime)
	}
	p, err := s.rx.GetByID(ctx, sc.PrescriptionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return nil, err
	}
	if err := s.rx.AddSchedule(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *Service) ListSchedules(ctx context.Context, actorID uuid.UUID, role string, prescriptionID uuid.UUID) ([]*Schedule, error) {
	p, err := s.rx.GetByID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return nil, err
	}
	return s.rx.ListSchedules(ctx, prescriptionID)
}

func (s *Service) DeleteSchedule(ctx context.Context, actorID uuid.UUID, role string, id uuid.UUID) error {
	sc, err := s.rx.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.rx.GetByID(ctx, sc.PrescriptionID)
	if err != nil {
		return err
	}
	if _, err := s.access.Authorize(ctx, actorID, role, &p.UserID); err != nil {
		return err
	}
	return s.rx.DeleteSchedule(ctx, id)
}
