package guardian

import (
	"time"

	"github.com/google/uuid"
)

// Link maps to the guardian_link table: a directed edge granting the guardian
// access to the patient's medication data. The relation is single-hop; no
// transitive guardianship is derived from chains of links.
type Link struct {
	GuardianID uuid.UUID `db:"guardian_id" json:"guardian_id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Relation   *string   `db:"relation" json:"relation,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Scope is the set of user ids a request is authorized to read.
type Scope []uuid.UUID

// SingleScope returns a scope containing exactly one subject.
func SingleScope(id uuid.UUID) Scope {
	return Scope{id}
}

// Contains reports whether the scope includes the given user id.
func (s Scope) Contains(id uuid.UUID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}
