package intake

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the intake log store boundary.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	// Query returns events matching the filter ordered by reminder_time
	// ascending. Time bounds are inclusive on both ends.
	Query(ctx context.Context, f Filter) ([]*Event, error)
	// QueryDay restricts to a single subject and one calendar day.
	QueryDay(ctx context.Context, subject uuid.UUID, day time.Time) ([]*Event, error)
	Resolve(ctx context.Context, id uuid.UUID, action Action, at time.Time) error
	// ListDue returns unresolved events whose reminder time has passed and
	// that have not been notified yet.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Event, error)
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
	// ExpireOverdue resolves every unresolved event older than the cutoff to
	// NO_RESPONSE and reports how many rows changed.
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}
