package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
)

// Window scopes an aggregation request. Scope holds the already-authorized
// subject set; MedicineID optionally narrows to one medicine.
type Window struct {
	Scope      guardian.Scope
	Start      time.Time
	End        time.Time
	MedicineID *uuid.UUID
}

// AdherenceResult is the full aggregation output for one window. Missed is a
// defined count, skipped plus no-response, so no_response appears in both
// Missed and its own field.
type AdherenceResult struct {
	Rate           float64 `json:"rate"`
	TotalScheduled int     `json:"total_scheduled"`
	Taken          int     `json:"taken"`
	Missed         int     `json:"missed"`
	Postponed      int     `json:"postponed"`
	Skipped        int     `json:"skipped"`
	NoResponse     int     `json:"no_response"`

	PerMedicine  []MedicineAdherence `json:"per_medicine"`
	PerTimeOfDay TimeOfDayAdherence  `json:"per_time_of_day"`
}

// MedicineAdherence is one medicine's slice of the window, with its rate
// computed against its own total only.
type MedicineAdherence struct {
	MedicineID     uuid.UUID `json:"medicine_id"`
	MedicineName   string    `json:"medicine_name"`
	Rate           float64   `json:"rate"`
	TotalScheduled int       `json:"total_scheduled"`
	Taken          int       `json:"taken"`
	Missed         int       `json:"missed"`
}

// BandCounts aggregates one time-of-day band.
type BandCounts struct {
	Rate           float64 `json:"rate"`
	TotalScheduled int     `json:"total_scheduled"`
	Taken          int     `json:"taken"`
	Missed         int     `json:"missed"`
}

// TimeOfDayAdherence splits the window into three fixed local-time bands.
// Events without a schedule are excluded from this breakdown.
type TimeOfDayAdherence struct {
	Morning   BandCounts `json:"morning"`
	Afternoon BandCounts `json:"afternoon"`
	Evening   BandCounts `json:"evening"`
}

// Period is a trend bucket granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod rejects anything but the three known granularities. There is no
// default; an absent period is a caller error.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	default:
		return "", fmt.Errorf("invalid period %q, want daily, weekly or monthly", s)
	}
}

// TrendPoint is one bucket of the trend series.
type TrendPoint struct {
	BucketStart    time.Time `json:"bucket_start"`
	TotalScheduled int       `json:"total_scheduled"`
	Taken          int       `json:"taken"`
	Missed         int       `json:"missed"`
	Rate           float64   `json:"rate"`
}

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

type TrendSummary struct {
	AverageRate float64 `json:"average_rate"`
	HighestRate float64 `json:"highest_rate"`
	LowestRate  float64 `json:"lowest_rate"`
	Trend       string  `json:"trend"`
}

type TrendReport struct {
	Period  Period       `json:"period"`
	Points  []TrendPoint `json:"points"`
	Summary TrendSummary `json:"summary"`
}

// TodaySummary partitions today's doses. Upcoming counts unresolved doses
// whose reminder time is still ahead of now.
type TodaySummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Upcoming  int `json:"upcoming"`
}

// LastDose is the most recent taken dose.
type LastDose struct {
	MedicineName string    `json:"medicine_name"`
	Time         time.Time `json:"time"`
}

// DashboardSnapshot is the per-user rollup, always scoped to one subject.
type DashboardSnapshot struct {
	UserID              uuid.UUID    `json:"user_id"`
	Prescriptions       int          `json:"prescriptions"`
	ActivePrescriptions int          `json:"active_prescriptions"`
	ActiveMedicines     int          `json:"active_medicines"`
	ThirtyDayRate       float64      `json:"thirty_day_rate"`
	Today               TodaySummary `json:"today"`
	LastDose            *LastDose    `json:"last_dose,omitempty"`
	StreakDays          int          `json:"streak_days"`
}
