package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanMonthly Plan = "MONTHLY"
	PlanYearly  Plan = "YEARLY"
)

func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanMonthly, PlanYearly:
		return Plan(s), nil
	default:
		return "", fmt.Errorf("invalid plan %q", s)
	}
}

// PriceINR is the plan price in whole rupees.
func (p Plan) PriceINR() int {
	if p == PlanYearly {
		return 1999
	}
	return 199
}

func (p Plan) Duration() time.Duration {
	if p == PlanYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Subscription tracks one premium purchase. SessionID ties it to the gateway
// checkout; the webhook flips Status once payment settles.
type Subscription struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Plan      Plan       `db:"plan" json:"plan"`
	Status    Status     `db:"status" json:"status"`
	SessionID string     `db:"session_id" json:"-"`
	StartsAt  *time.Time `db:"starts_at" json:"starts_at,omitempty"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the subscription grants premium at the instant.
func (s *Subscription) ActiveAt(t time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	if s.StartsAt != nil && t.Before(*s.StartsAt) {
		return false
	}
	return s.ExpiresAt == nil || !t.After(*s.ExpiresAt)
}
