package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateDeviceToken(ctx context.Context, id uuid.UUID, token *string) error
	// ListWithDeviceToken returns users holding a push registration, for the
	// reminder engine's delivery fan-out.
	ListWithDeviceToken(ctx context.Context, ids []uuid.UUID) ([]*User, error)
}
