package medicine

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List filters by a case-insensitive name prefix when q is non-empty.
	List(ctx context.Context, q string, limit, offset int) ([]*Medicine, int, error)
}
