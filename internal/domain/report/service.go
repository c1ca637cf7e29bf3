package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/intake"
)

// errValidation marks errors raised before any store I/O; everything else a
// compute operation returns is a propagated store failure.
var errValidation = errors.New("invalid report query")

func (w Window) validate() error {
	if len(w.Scope) == 0 {
		return fmt.Errorf("%w: empty subject scope", errValidation)
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: window bounds are required", errValidation)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w: window end precedes start", errValidation)
	}
	return nil
}

// IntakeSource is the intake log store boundary this engine reads from.
type IntakeSource interface {
	Query(ctx context.Context, f intake.Filter) ([]*intake.Event, error)
}

// PrescriptionSource supplies the dashboard's prescription counts.
type PrescriptionSource interface {
	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountActiveForUser(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
	CountDistinctActiveMedicines(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
}

type Service struct {
	intakes IntakeSource
	rx      PrescriptionSource
	now     func() time.Time
}

func NewService(intakes IntakeSource, rx PrescriptionSource) *Service {
	return &Service{intakes: intakes, rx: rx, now: time.Now}
}

// roundRate is taken over total as a percentage, rounded half away from zero
// to two decimals. A zero total is a defined zero rate, never an error.
func roundRate(taken, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(total)*100*100) / 100
}

// tally accumulates one partition of events. missed is skipped plus
// no-response; unresolved events count only toward total.
type tally struct {
	total      int
	taken      int
	postponed  int
	skipped    int
	noResponse int
}

func (t *tally) add(a intake.Action) {
	t.total++
	switch a {
	case intake.ActionTaken:
		t.taken++
	case intake.ActionPostponed:
		t.postponed++
	case intake.ActionSkipped:
		t.skipped++
	case intake.ActionNoResponse:
		t.noResponse++
	case intake.ActionUnresolved:
	}
}

func (t *tally) missed() int { return t.skipped + t.noResponse }

func (t *tally) rate() float64 { return roundRate(t.taken, t.total) }

// ComputeAdherence aggregates the window into a global tally, a per-medicine
// breakdown with locally computed rates, and a time-of-day breakdown keyed on
// each event's schedule slot.
func (s *Service) ComputeAdherence(ctx context.Context, w Window) (*AdherenceResult, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	events, err := s.intakes.Query(ctx, intake.Filter{
		Subjects:   w.Scope,
		Start:      &w.Start,
		End:        &w.End,
		MedicineID: w.MedicineID,
	})
	if err != nil {
		return nil, err
	}

	var global tally
	type medTally struct {
		name string
		tally
	}
	perMedicine := make(map[uuid.UUID]*medTally)
	var morning, afternoon, evening tally

	for _, e := range events {
		global.add(e.Action)

		mt, ok := perMedicine[e.MedicineID]
		if !ok {
			mt = &medTally{name: e.MedicineName}
			perMedicine[e.MedicineID] = mt
		}
		mt.add(e.Action)

		if band := bandFor(e.ScheduleTime); band != nil {
			switch *band {
			case bandMorning:
				morning.add(e.Action)
			case bandAfternoon:
				afternoon.add(e.Action)
			case bandEvening:
				evening.add(e.Action)
			}
		}
	}

	result := &AdherenceResult{
		Rate:           global.rate(),
		TotalScheduled: global.total,
		Taken:          global.taken,
		Missed:         global.missed(),
		Postponed:      global.postponed,
		Skipped:        global.skipped,
		NoResponse:     global.noResponse,
		PerMedicine:    []MedicineAdherence{},
		PerTimeOfDay: TimeOfDayAdherence{
			Morning:   bandCounts(&morning),
			Afternoon: bandCounts(&afternoon),
			Evening:   bandCounts(&evening),
		},
	}
	for id, mt := range perMedicine {
		result.PerMedicine = append(result.PerMedicine, MedicineAdherence{
			MedicineID:     id,
			MedicineName:   mt.name,
			Rate:           mt.rate(),
			TotalScheduled: mt.total,
			Taken:          mt.taken,
			Missed:         mt.missed(),
		})
	}
	sort.Slice(result.PerMedicine, func(i, j int) bool {
		a, b := result.PerMedicine[i], result.PerMedicine[j]
		if a.MedicineName != b.MedicineName {
			return a.MedicineName < b.MedicineName
		}
		return a.MedicineID.String() < b.MedicineID.String()
	})
	return result, nil
}

func bandCounts(t *tally) BandCounts {
	return BandCounts{Rate: t.rate(), TotalScheduled: t.total, Taken: t.taken, Missed: t.missed()}
}

type band int

const (
	bandMorning band = iota
	bandAfternoon
	bandEvening
)

// bandFor maps a schedule's "HH:MM" slot to a band. Morning is [05:00,12:00),
// afternoon [12:00,18:00), evening wraps midnight. Events without a schedule
// get no band.
func bandFor(scheduleTime *string) *band {
	if scheduleTime == nil {
		return nil
	}
	t, err := time.Parse("15:04", *scheduleTime)
	if err != nil {
		return nil
	}
	var b band
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		b = bandMorning
	case h >= 12 && h < 18:
		b = bandAfternoon
	default:
		b = bandEvening
	}
	return &b
}

// ComputeTrend buckets the window's events at the requested granularity and
// classifies the direction by comparing the two halves of the series.
func (s *Service) ComputeTrend(ctx context.Context, w Window, period Period) (*TrendReport, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, fmt.Errorf("%w: %v", errValidation, err)
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	events, err := s.intakes.Query(ctx, intake.Filter{
		Subjects: w.Scope,
		Start:    &w.Start,
		End:      &w.End,
	})
	if err != nil {
		return nil, err
	}

	buckets := make(map[time.Time]*tally)
	for _, e := range events {
		key := bucketStart(e.ReminderTime, period)
		t, ok := buckets[key]
		if !ok {
			t = &tally{}
			buckets[key] = t
		}
		t.add(e.Action)
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		t := buckets[k]
		points = append(points, TrendPoint{
			BucketStart:    k,
			TotalScheduled: t.total,
			Taken:          t.taken,
			Missed:         t.missed(),
			Rate:           t.rate(),
		})
	}

	return &TrendReport{Period: period, Points: points, Summary: summarize(points)}, nil
}

// bucketStart truncates an instant to its bucket key. Weeks are anchored on
// Monday.
func bucketStart(t time.Time, period Period) time.Time {
	d := dateOf(t)
	switch period {
	case PeriodWeekly:
		return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	case PeriodMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	default:
		return d
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func summarize(points []TrendPoint) TrendSummary {
	sum := TrendSummary{Trend: TrendStable}
	if len(points) == 0 {
		return sum
	}

	total := 0.0
	sum.HighestRate = points[0].Rate
	sum.LowestRate = points[0].Rate
	for _, p := range points {
		total += p.Rate
		if p.Rate > sum.HighestRate {
			sum.HighestRate = p.Rate
		}
		if p.Rate < sum.LowestRate {
			sum.LowestRate = p.Rate
		}
	}
	sum.AverageRate = math.Round(total/float64(len(points))*100) / 100

	if len(points) < 2 {
		return sum
	}
	mid := len(points) / 2
	diff := meanRate(points[mid:]) - meanRate(points[:mid])
	switch {
	case diff > 5:
		sum.Trend = TrendImproving
	case diff < -5:
		sum.Trend = TrendDeclining
	}
	return sum
}

func meanRate(points []TrendPoint) float64 {
	total := 0.0
	for _, p := range points {
		total += p.Rate
	}
	return total / float64(len(points))
}

const (
	streakLookbackDays = 365
	streakThreshold    = 80.0
)

// ComposeDashboard builds the per-user rollup from one ranged fetch covering
// the streak lookback window plus the rest of today, bucketed per day in
// memory.
func (s *Service) ComposeDashboard(ctx context.Context, subject uuid.UUID) (*DashboardSnapshot, error) {
	if subject == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is required", errValidation)
	}

	now := s.now()
	today := dateOf(now)
	start := today.AddDate(0, 0, -streakLookbackDays)
	end := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	events, err := s.intakes.Query(ctx, intake.Filter{
		Subjects: []uuid.UUID{subject},
		Start:    &start,
		End:      &end,
	})
	if err != nil {
		return nil, err
	}

	snap := &DashboardSnapshot{UserID: subject}

	var thirtyDay tally
	thirtyDayStart := today.AddDate(0, 0, -30)
	days := make(map[time.Time]*tally)
	var lastTaken *intake.Event

	for _, e := range events {
		if !e.ReminderTime.Before(thirtyDayStart) && !e.ReminderTime.After(now) {
			thirtyDay.add(e.Action)
		}

		day := dateOf(e.ReminderTime)
		if day.Equal(today) {
			snap.Today.Total++
			switch {
			case e.Action == intake.ActionTaken:
				snap.Today.Completed++
			case e.Action == intake.ActionSkipped || e.Action == intake.ActionNoResponse:
				snap.Today.Missed++
			case e.Action == intake.ActionUnresolved && e.ReminderTime.After(now):
				snap.Today.Upcoming++
			}
		}

		// Doses still ahead of now do not count against today's streak.
		if !day.Equal(today) || !e.ReminderTime.After(now) {
			t, ok := days[day]
			if !ok {
				t = &tally{}
				days[day] = t
			}
			t.add(e.Action)
		}

		if e.Action == intake.ActionTaken {
			if lastTaken == nil || takenAt(e).After(takenAt(lastTaken)) {
				lastTaken = e
			}
		}
	}

	snap.ThirtyDayRate = thirtyDay.rate()
	if lastTaken != nil {
		snap.LastDose = &LastDose{MedicineName: lastTaken.MedicineName, Time: takenAt(lastTaken)}
	}

	for i := 0; i < streakLookbackDays; i++ {
		t, ok := days[today.AddDate(0, 0, -i)]
		if !ok || t.total == 0 {
			continue
		}
		if t.rate() < streakThreshold {
			break
		}
		snap.StreakDays++
	}

	snap.Prescriptions, err = s.rx.CountForUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	snap.ActivePrescriptions, err = s.rx.CountActiveForUser(ctx, subject, today)
	if err != nil {
		return nil, err
	}
	snap.ActiveMedicines, err = s.rx.CountDistinctActiveMedicines(ctx, subject, today)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func takenAt(e *intake.Event) time.Time {
	if e.ActionTime != nil {
		return *e.ActionTime
	}
	return e.ReminderTime
}
