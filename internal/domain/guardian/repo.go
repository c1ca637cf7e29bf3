package guardian

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, l *Link) error
	Exists(ctx context.Context, guardianID, patientID uuid.UUID) (bool, error)
	ListPatientIDs(ctx context.Context, guardianID uuid.UUID) ([]uuid.UUID, error)
	ListByGuardian(ctx context.Context, guardianID uuid.UUID) ([]*Link, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Link, error)
	UpdateRelation(ctx context.Context, guardianID, patientID uuid.UUID, relation *string) error
	Delete(ctx context.Context, guardianID, patientID uuid.UUID) error
}
