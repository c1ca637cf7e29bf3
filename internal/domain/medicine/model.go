package medicine

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is a shared catalog entry referenced by prescriptions.
type Medicine struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
