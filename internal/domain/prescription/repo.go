package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Prescription, int, error)

	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountActiveForUser(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
	CountDistinctActiveMedicines(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)

	AddSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListSchedules(ctx context.Context, prescriptionID uuid.UUID) ([]*Schedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
}
