package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Role is USER or ADMIN; DeviceToken is the push
// registration used by reminders, absent until the client registers one.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	DeviceToken  *string   `db:"device_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
