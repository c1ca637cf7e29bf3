package medicine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	meds Repository
}

func NewService(meds Repository) *Service {
	return &Service{meds: meds}
}

func (s *Service) Create(ctx context.Context, m *Medicine) (*Medicine, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := s.meds.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.meds.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Medicine) (*Medicine, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := s.meds.GetByID(ctx, m.ID); err != nil {
		return nil, err
	}
	if err := s.meds.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.meds.GetByID(ctx, m.ID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.meds.GetByID(ctx, id); err != nil {
		return err
	}
	return s.meds.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error) {
	return s.meds.List(ctx, strings.TrimSpace(q), limit, offset)
}
