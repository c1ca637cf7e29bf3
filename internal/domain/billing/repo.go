package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Subscription, error)
}
