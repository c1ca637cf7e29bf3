package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription ties a user to a medicine with an optional validity window.
// Nil dates leave that side of the window open.
type Prescription struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	MedicineID   uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	Dosage       *string    `db:"dosage" json:"dosage,omitempty"`
	Instructions *string    `db:"instructions" json:"instructions,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	MedicineName string `db:"-" json:"medicine_name,omitempty"`
}

// IsActiveOn reports whether the prescription is in effect on the given
// calendar day. Comparison is by date, not instant.
func (p *Prescription) IsActiveOn(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	if p.StartDate != nil {
		s := *p.StartDate
		if time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, day.Location()).After(d) {
			return false
		}
	}
	if p.EndDate != nil {
		e := *p.EndDate
		if time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, day.Location()).Before(d) {
			return false
		}
	}
	return true
}

// Schedule is one fixed time-of-day slot for a prescription. IntakeTime is a
// 24h "HH:MM" string in the user's local time.
type Schedule struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	IntakeTime     string    `db:"intake_time" json:"intake_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
