package intake

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the resolution outcome of a scheduled dose. The zero value means
// the dose is still pending and maps to a NULL column in the store.
type Action string

const (
	ActionUnresolved Action = ""
	ActionTaken      Action = "TAKEN"
	ActionPostponed  Action = "POSTPONED"
	ActionSkipped    Action = "SKIPPED"
	ActionNoResponse Action = "NO_RESPONSE"
)

// ParseAction accepts only resolution outcomes; an empty or unknown string is
// a caller error.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionTaken, ActionPostponed, ActionSkipped, ActionNoResponse:
		return Action(s), nil
	default:
		return ActionUnresolved, fmt.Errorf("invalid action %q", s)
	}
}

// Event is one scheduled dose instance. ReminderTime is always present;
// Action stays unresolved until the user, a guardian, or the overdue sweep
// resolves it. MedicineName and ScheduleTime are read-only join columns.
type Event struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	MedicineID     uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	ScheduleID     *uuid.UUID `db:"schedule_id" json:"schedule_id,omitempty"`
	ReminderTime   time.Time  `db:"reminder_time" json:"reminder_time"`
	Action         Action     `db:"action" json:"action,omitempty"`
	ActionTime     *time.Time `db:"action_time" json:"action_time,omitempty"`
	NotifiedAt     *time.Time `db:"notified_at" json:"notified_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	MedicineName string  `db:"-" json:"medicine_name,omitempty"`
	ScheduleTime *string `db:"-" json:"schedule_time,omitempty"`
}

func (e *Event) Resolved() bool { return e.Action != ActionUnresolved }

// Filter scopes an event query. Subjects must be non-empty; nil bounds leave
// that side of the window open.
type Filter struct {
	Subjects   []uuid.UUID
	Start      *time.Time
	End        *time.Time
	MedicineID *uuid.UUID
}
