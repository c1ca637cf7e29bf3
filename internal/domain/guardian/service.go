package guardian

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

// ErrForbidden is returned when the actor has neither ownership of nor a
// guardian link to the requested subject. Handlers surface it as a distinct
// forbidden outcome, never as an empty result.
var ErrForbidden = errors.New("not owner or guardian")

type Service struct {
	links Repository
}

func NewService(links Repository) *Service {
	return &Service{links: links}
}

// IsGuardianOfPatient reports whether a direct edge (guardian, patient)
// exists. Single-hop only: guardian-of-a-guardian grants nothing, and the
// reverse edge is a separate, independent link.
func (s *Service) IsGuardianOfPatient(ctx context.Context, guardianID, patientID uuid.UUID) (bool, error) {
	return s.links.Exists(ctx, guardianID, patientID)
}

// ListPatientIDs returns all patients the given user directly guards.
func (s *Service) ListPatientIDs(ctx context.Context, guardianID uuid.UUID) ([]uuid.UUID, error) {
	return s.links.ListPatientIDs(ctx, guardianID)
}

// Authorize resolves the subject scope for a request. Admins may target
// anyone. A non-admin may target themselves or a patient they guard. When no
// explicit target is given, a non-admin's scope is their own id plus all of
// their wards; an admin's is their own id.
func (s *Service) Authorize(ctx context.Context, actorID uuid.UUID, role string, target *uuid.UUID) (Scope, error) {
	if target != nil {
		if role == auth.RoleAdmin || *target == actorID {
			return SingleScope(*target), nil
		}
		ok, err := s.links.Exists(ctx, actorID, *target)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrForbidden
		}
		return SingleScope(*target), nil
	}

	if role == auth.RoleAdmin {
		return SingleScope(actorID), nil
	}

	wards, err := s.links.ListPatientIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope := Scope{actorID}
	for _, w := range wards {
		if !scope.Contains(w) {
			scope = append(scope, w)
		}
	}
	return scope, nil
}

// CreateLink registers a guardian edge. Self-links are rejected; reverse
// edges are allowed and remain independent of the forward edge.
func (s *Service) CreateLink(ctx context.Context, l *Link) error {
	if l.GuardianID == uuid.Nil {
		return fmt.Errorf("guardian_id is required")
	}
	if l.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if l.GuardianID == l.PatientID {
		return fmt.Errorf("guardian and patient must be different users")
	}
	exists, err := s.links.Exists(ctx, l.GuardianID, l.PatientID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("guardian link already exists")
	}
	return s.links.Create(ctx, l)
}

func (s *Service) ListWards(ctx context.Context, guardianID uuid.UUID) ([]*Link, error) {
	return s.links.ListByGuardian(ctx, guardianID)
}

func (s *Service) ListGuardians(ctx context.Context, patientID uuid.UUID) ([]*Link, error) {
	return s.links.ListByPatient(ctx, patientID)
}

// UpdateLink changes only the metadata of an existing edge; the key pair
// itself is immutable.
func (s *Service) UpdateLink(ctx context.Context, guardianID, patientID uuid.UUID, relation *string) error {
	exists, err := s.links.Exists(ctx, guardianID, patientID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("guardian link not found")
	}
	return s.links.UpdateRelation(ctx, guardianID, patientID, relation)
}

func (s *Service) DeleteLink(ctx context.Context, guardianID, patientID uuid.UUID) error {
	return s.links.Delete(ctx, guardianID, patientID)
}
