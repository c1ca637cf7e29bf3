package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/intake"
)

// -- Fakes --

type fakeIntakeSource struct {
	events []*intake.Event
	calls  int
	err    error
}

func (f *fakeIntakeSource) Query(_ context.Context, filter intake.Filter) ([]*intake.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*intake.Event
	for _, e := range f.events {
		if !scopeContains(filter.Subjects, e.UserID) {
			continue
		}
		if filter.Start != nil && e.ReminderTime.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && e.ReminderTime.After(*filter.End) {
			continue
		}
		if filter.MedicineID != nil && e.MedicineID != *filter.MedicineID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func scopeContains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeRxSource struct {
	total, active, medicines int
}

func (f *fakeRxSource) CountForUser(context.Context, uuid.UUID) (int, error) { return f.total, nil }
func (f *fakeRxSource) CountActiveForUser(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.active, nil
}
func (f *fakeRxSource) CountDistinctActiveMedicines(context.Context, uuid.UUID, time.Time) (int, error) {
	return f.medicines, nil
}

func newTestService(events []*intake.Event, now time.Time) (*Service, *fakeIntakeSource) {
	src := &fakeIntakeSource{events: events}
	svc := NewService(src, &fakeRxSource{})
	svc.now = func() time.Time { return now }
	return svc, src
}

func ev(user, med uuid.UUID, action intake.Action, at time.Time, scheduleTime string) *intake.Event {
	e := &intake.Event{
		ID:           uuid.New(),
		UserID:       user,
		MedicineID:   med,
		Action:       action,
		ReminderTime: at,
	}
	if scheduleTime != "" {
		e.ScheduleTime = &scheduleTime
		sid := uuid.New()
		e.ScheduleID = &sid
	}
	return e
}

func window(subject uuid.UUID, start, end time.Time) Window {
	return Window{Scope: guardian.SingleScope(subject), Start: start, End: end}
}

// -- Adherence --

func TestComputeAdherence_MixedActions(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionTaken, base, ""),
		ev(user, med, intake.ActionSkipped, base.Add(time.Hour), ""),
		ev(user, med, intake.ActionUnresolved, base.Add(2*time.Hour), ""),
	}
	svc, _ := newTestService(events, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base.Add(-time.Hour), base.Add(3*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalScheduled != 3 || got.Taken != 1 || got.Missed != 1 {
		t.Errorf("counts = total %d taken %d missed %d, want 3/1/1", got.TotalScheduled, got.Taken, got.Missed)
	}
	if got.Rate != 33.33 {
		t.Errorf("rate = %v, want 33.33", got.Rate)
	}
}

func TestComputeAdherence_EmptyWindow(t *testing.T) {
	user := uuid.New()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestService(nil, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base, base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rate != 0 || got.TotalScheduled != 0 || got.Taken != 0 || got.Missed != 0 {
		t.Errorf("expected all-zero result, got %+v", got)
	}
}

func TestComputeAdherence_MissedIsSkippedPlusNoResponse(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionSkipped, base, ""),
		ev(user, med, intake.ActionSkipped, base.Add(time.Hour), ""),
		ev(user, med, intake.ActionNoResponse, base.Add(2*time.Hour), ""),
		ev(user, med, intake.ActionPostponed, base.Add(3*time.Hour), ""),
	}
	svc, _ := newTestService(events, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base, base.Add(4*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Missed != got.Skipped+got.NoResponse {
		t.Errorf("missed %d != skipped %d + no_response %d", got.Missed, got.Skipped, got.NoResponse)
	}
	if got.Missed != 3 || got.Postponed != 1 {
		t.Errorf("missed %d postponed %d, want 3/1", got.Missed, got.Postponed)
	}
}

func TestComputeAdherence_PerMedicineRatesAreIndependent(t *testing.T) {
	user := uuid.New()
	medA, medB := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, medA, intake.ActionTaken, base, ""),
		ev(user, medA, intake.ActionTaken, base.Add(time.Hour), ""),
		ev(user, medB, intake.ActionTaken, base.Add(2*time.Hour), ""),
		ev(user, medB, intake.ActionSkipped, base.Add(3*time.Hour), ""),
	}
	svc, _ := newTestService(events, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base, base.Add(4*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.PerMedicine) != 2 {
		t.Fatalf("expected 2 medicines, got %d", len(got.PerMedicine))
	}
	rates := map[uuid.UUID]float64{}
	for _, m := range got.PerMedicine {
		rates[m.MedicineID] = m.Rate
	}
	if rates[medA] != 100 {
		t.Errorf("medicine A rate = %v, want 100", rates[medA])
	}
	if rates[medB] != 50 {
		t.Errorf("medicine B rate = %v, want 50", rates[medB])
	}

	// Adding events for B must not move A's rate.
	events = append(events, ev(user, medB, intake.ActionSkipped, base.Add(30*time.Minute), ""))
	svc2, _ := newTestService(events, base)
	got2, err := svc2.ComputeAdherence(context.Background(), window(user, base, base.Add(4*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range got2.PerMedicine {
		if m.MedicineID == medA && m.Rate != 100 {
			t.Errorf("medicine A rate changed to %v after unrelated events", m.Rate)
		}
	}
}

func TestComputeAdherence_TimeOfDayBands(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionTaken, base.Add(8*time.Hour), "08:00"),   // morning
		ev(user, med, intake.ActionSkipped, base.Add(13*time.Hour), "13:00"), // afternoon
		ev(user, med, intake.ActionTaken, base.Add(20*time.Hour), "20:00"),  // evening
		ev(user, med, intake.ActionTaken, base.Add(2*time.Hour), "02:00"),   // evening, wraps midnight
		ev(user, med, intake.ActionTaken, base.Add(4*time.Hour), "04:59"),   // evening edge
		ev(user, med, intake.ActionTaken, base.Add(5*time.Hour), "05:00"),   // morning edge
		ev(user, med, intake.ActionTaken, base.Add(11*time.Hour), "11:59"),  // morning edge
		ev(user, med, intake.ActionTaken, base.Add(12*time.Hour), "12:00"),  // afternoon edge
		ev(user, med, intake.ActionTaken, base.Add(17*time.Hour), "17:59"),  // afternoon edge
		ev(user, med, intake.ActionTaken, base.Add(18*time.Hour), "18:00"),  // evening edge
		ev(user, med, intake.ActionTaken, base.Add(9*time.Hour), ""),        // no schedule: global only
	}
	svc, _ := newTestService(events, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base, base.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tod := got.PerTimeOfDay
	if tod.Morning.TotalScheduled != 3 {
		t.Errorf("morning total = %d, want 3", tod.Morning.TotalScheduled)
	}
	if tod.Afternoon.TotalScheduled != 3 {
		t.Errorf("afternoon total = %d, want 3", tod.Afternoon.TotalScheduled)
	}
	if tod.Evening.TotalScheduled != 4 {
		t.Errorf("evening total = %d, want 4", tod.Evening.TotalScheduled)
	}
	banded := tod.Morning.TotalScheduled + tod.Afternoon.TotalScheduled + tod.Evening.TotalScheduled
	if banded != got.TotalScheduled-1 {
		t.Errorf("schedule-less event must stay out of bands but in global total (banded %d, global %d)", banded, got.TotalScheduled)
	}
}

func TestComputeAdherence_RateBounds(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	actions := []intake.Action{
		intake.ActionTaken, intake.ActionSkipped, intake.ActionPostponed,
		intake.ActionNoResponse, intake.ActionUnresolved,
	}
	var events []*intake.Event
	for i := 0; i < 25; i++ {
		events = append(events, ev(user, med, actions[i%len(actions)], base.Add(time.Duration(i)*time.Minute), ""))
	}
	svc, _ := newTestService(events, base)

	got, err := svc.ComputeAdherence(context.Background(), window(user, base, base.Add(time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rate < 0 || got.Rate > 100 {
		t.Errorf("rate %v out of [0,100]", got.Rate)
	}
	for _, m := range got.PerMedicine {
		if m.Rate < 0 || m.Rate > 100 {
			t.Errorf("medicine rate %v out of [0,100]", m.Rate)
		}
	}
}

func TestComputeAdherence_Validation(t *testing.T) {
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	svc, src := newTestService(nil, base)
	ctx := context.Background()

	if _, err := svc.ComputeAdherence(ctx, Window{Start: base, End: base.Add(time.Hour)}); !errors.Is(err, errValidation) {
		t.Errorf("expected validation error for empty scope, got %v", err)
	}
	if _, err := svc.ComputeAdherence(ctx, window(uuid.New(), base.Add(time.Hour), base)); !errors.Is(err, errValidation) {
		t.Errorf("expected validation error for inverted window, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("validation failures must not reach the store, got %d calls", src.calls)
	}
}

func TestComputeAdherence_StoreErrorIsNotValidation(t *testing.T) {
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	svc, src := newTestService(nil, base)
	src.err = errors.New("store unavailable")

	_, err := svc.ComputeAdherence(context.Background(), window(uuid.New(), base, base.Add(time.Hour)))
	if err == nil {
		t.Fatal("expected the store error to propagate")
	}
	if errors.Is(err, errValidation) {
		t.Error("a store failure must not be classified as a validation error")
	}
}

// -- Trend --

func TestBucketStart_WeeklyMondayAnchor(t *testing.T) {
	// Wednesday 2024-01-03 belongs to the week starting Monday 2024-01-01.
	wed := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := bucketStart(wed, PeriodWeekly); !got.Equal(want) {
		t.Errorf("bucketStart = %v, want %v", got, want)
	}

	// Sunday folds back to the previous Monday, Monday anchors itself.
	sun := time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC)
	if got := bucketStart(sun, PeriodWeekly); !got.Equal(want) {
		t.Errorf("sunday bucketStart = %v, want %v", got, want)
	}
	mon := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	if got := bucketStart(mon, PeriodWeekly); !got.Equal(want) {
		t.Errorf("monday bucketStart = %v, want %v", got, want)
	}
}

func TestBucketStart_DailyAndMonthly(t *testing.T) {
	at := time.Date(2024, 2, 14, 23, 59, 0, 0, time.UTC)
	if got := bucketStart(at, PeriodDaily); !got.Equal(time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily bucketStart = %v", got)
	}
	if got := bucketStart(at, PeriodMonthly); !got.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly bucketStart = %v", got)
	}
}

func TestComputeTrend_InvalidPeriodRejectedBeforeFetch(t *testing.T) {
	base := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	svc, src := newTestService(nil, base)

	for _, bad := range []string{"", "hourly", "DAILY", "yearly"} {
		if _, err := svc.ComputeTrend(context.Background(), window(uuid.New(), base, base.Add(time.Hour)), Period(bad)); err == nil {
			t.Errorf("period %q: expected error", bad)
		}
	}
	if src.calls != 0 {
		t.Errorf("invalid periods must not reach the store, got %d calls", src.calls)
	}
}

func TestComputeTrend_BucketsAscending(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	var events []*intake.Event
	// Deliberately unordered days.
	for _, day := range []int{20, 3, 11, 7, 28} {
		at := time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC)
		events = append(events, ev(user, med, intake.ActionTaken, at, ""))
	}
	svc, _ := newTestService(events, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.ComputeTrend(context.Background(),
		window(user, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		PeriodDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Points) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(got.Points))
	}
	for i := 1; i < len(got.Points); i++ {
		if !got.Points[i-1].BucketStart.Before(got.Points[i].BucketStart) {
			t.Errorf("bucket keys not strictly increasing at %d", i)
		}
	}
}

func trendFor(t *testing.T, rates [][2]int) string {
	t.Helper()
	user, med := uuid.New(), uuid.New()
	var events []*intake.Event
	for i, r := range rates {
		day := time.Date(2024, 1, 1+i, 9, 0, 0, 0, time.UTC)
		for j := 0; j < r[0]; j++ {
			events = append(events, ev(user, med, intake.ActionTaken, day.Add(time.Duration(j)*time.Minute), ""))
		}
		for j := 0; j < r[1]; j++ {
			events = append(events, ev(user, med, intake.ActionSkipped, day.Add(time.Hour+time.Duration(j)*time.Minute), ""))
		}
	}
	svc, _ := newTestService(events, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	got, err := svc.ComputeTrend(context.Background(),
		window(user, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
		PeriodDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got.Summary.Trend
}

func TestComputeTrend_Direction(t *testing.T) {
	// Each pair is (taken, skipped) for one day.
	if got := trendFor(t, [][2]int{{1, 9}, {2, 8}, {8, 2}, {9, 1}}); got != TrendImproving {
		t.Errorf("rising halves = %q, want improving", got)
	}
	if got := trendFor(t, [][2]int{{9, 1}, {8, 2}, {2, 8}, {1, 9}}); got != TrendDeclining {
		t.Errorf("falling halves = %q, want declining", got)
	}
	if got := trendFor(t, [][2]int{{5, 5}, {5, 5}, {5, 5}, {5, 5}}); got != TrendStable {
		t.Errorf("flat series = %q, want stable", got)
	}
	// A 5-point swing is not enough; it must exceed the threshold.
	if got := trendFor(t, [][2]int{{50, 50}, {55, 45}}); got != TrendStable {
		t.Errorf("five-point delta = %q, want stable", got)
	}
	if got := trendFor(t, [][2]int{{10, 0}}); got != TrendStable {
		t.Errorf("single bucket = %q, want stable", got)
	}
}

func TestComputeTrend_Summary(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	// Day 1: 100%, day 2: 50%, day 3: 0%.
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionTaken, day1, ""),
		ev(user, med, intake.ActionTaken, day2, ""),
		ev(user, med, intake.ActionSkipped, day2.Add(time.Hour), ""),
		ev(user, med, intake.ActionSkipped, day3, ""),
	}
	svc, _ := newTestService(events, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.ComputeTrend(context.Background(),
		window(user, day1.AddDate(0, 0, -1), day3.AddDate(0, 0, 1)), PeriodDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := got.Summary
	if s.HighestRate != 100 || s.LowestRate != 0 || s.AverageRate != 50 {
		t.Errorf("summary high %v low %v avg %v, want 100/0/50", s.HighestRate, s.LowestRate, s.AverageRate)
	}
	if s.Trend != TrendDeclining {
		t.Errorf("trend = %q, want declining", s.Trend)
	}
}

// -- Dashboard --

func TestComposeDashboard_TodayBreakdown(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionTaken, today.Add(8*time.Hour), ""),
		ev(user, med, intake.ActionSkipped, today.Add(12*time.Hour), ""),
		ev(user, med, intake.ActionNoResponse, today.Add(13*time.Hour), ""),
		ev(user, med, intake.ActionUnresolved, today.Add(20*time.Hour), ""), // upcoming
		ev(user, med, intake.ActionUnresolved, today.Add(10*time.Hour), ""), // overdue, neither completed nor upcoming
	}
	svc, _ := newTestService(events, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TodaySummary{Total: 5, Completed: 1, Missed: 2, Upcoming: 1}
	if snap.Today != want {
		t.Errorf("today = %+v, want %+v", snap.Today, want)
	}
}

func TestComposeDashboard_ThirtyDayRate(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	events := []*intake.Event{
		ev(user, med, intake.ActionTaken, now.AddDate(0, 0, -5), ""),
		ev(user, med, intake.ActionSkipped, now.AddDate(0, 0, -10), ""),
		ev(user, med, intake.ActionTaken, now.AddDate(0, 0, -20), ""),
		// Outside the trailing 30 days, must not contribute.
		ev(user, med, intake.ActionSkipped, now.AddDate(0, 0, -40), ""),
		ev(user, med, intake.ActionSkipped, now.AddDate(0, 0, -50), ""),
	}
	svc, _ := newTestService(events, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ThirtyDayRate != 66.67 {
		t.Errorf("thirty day rate = %v, want 66.67", snap.ThirtyDayRate)
	}
}

func dayOfTaken(user, med uuid.UUID, day time.Time, taken, skipped int) []*intake.Event {
	var out []*intake.Event
	for i := 0; i < taken; i++ {
		out = append(out, ev(user, med, intake.ActionTaken, day.Add(8*time.Hour+time.Duration(i)*time.Minute), ""))
	}
	for i := 0; i < skipped; i++ {
		out = append(out, ev(user, med, intake.ActionSkipped, day.Add(12*time.Hour+time.Duration(i)*time.Minute), ""))
	}
	return out
}

func TestComposeDashboard_Streak(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	var events []*intake.Event
	events = append(events, dayOfTaken(user, med, today, 5, 0)...)                  // 100%
	events = append(events, dayOfTaken(user, med, today.AddDate(0, 0, -1), 4, 1)...) // 80%, qualifies
	// Day -2 has no events and is skipped without breaking the streak.
	events = append(events, dayOfTaken(user, med, today.AddDate(0, 0, -3), 5, 0)...) // 100%
	events = append(events, dayOfTaken(user, med, today.AddDate(0, 0, -4), 1, 4)...) // 20%, breaks
	events = append(events, dayOfTaken(user, med, today.AddDate(0, 0, -5), 5, 0)...) // beyond the break
	svc, _ := newTestService(events, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.StreakDays != 3 {
		t.Errorf("streak = %d, want 3", snap.StreakDays)
	}
}

func TestComposeDashboard_StreakZeroOnBadDay(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	events := dayOfTaken(user, med, today, 1, 4) // 20% today
	events = append(events, dayOfTaken(user, med, today.AddDate(0, 0, -1), 5, 0)...)
	svc, _ := newTestService(events, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.StreakDays != 0 {
		t.Errorf("streak = %d, want 0 when today is below threshold", snap.StreakDays)
	}
}

func TestComposeDashboard_StreakIgnoresFutureDoses(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	// One taken dose this morning plus four doses later today. Pending future
	// doses must not drag today's rate below the threshold.
	events := []*intake.Event{ev(user, med, intake.ActionTaken, today.Add(8*time.Hour), "")}
	for i := 0; i < 4; i++ {
		events = append(events, ev(user, med, intake.ActionUnresolved, today.Add(time.Duration(14+i)*time.Hour), ""))
	}
	svc, _ := newTestService(events, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.StreakDays != 1 {
		t.Errorf("streak = %d, want 1", snap.StreakDays)
	}
}

func TestComposeDashboard_SingleRangedFetch(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	events := dayOfTaken(user, med, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 3, 0)
	svc, src := newTestService(events, now)

	if _, err := svc.ComposeDashboard(context.Background(), user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected one ranged intake fetch, got %d", src.calls)
	}
}

func TestComposeDashboard_LastDose(t *testing.T) {
	user, med := uuid.New(), uuid.New()
	now := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	older := ev(user, med, intake.ActionTaken, now.Add(-48*time.Hour), "")
	older.MedicineName = "Metformin"
	newer := ev(user, med, intake.ActionTaken, now.Add(-3*time.Hour), "")
	newer.MedicineName = "Lisinopril"
	at := now.Add(-2 * time.Hour)
	newer.ActionTime = &at
	svc, _ := newTestService([]*intake.Event{older, newer}, now)

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.LastDose == nil {
		t.Fatal("expected a last dose")
	}
	if snap.LastDose.MedicineName != "Lisinopril" || !snap.LastDose.Time.Equal(at) {
		t.Errorf("last dose = %+v", snap.LastDose)
	}
}

func TestComposeDashboard_PrescriptionCounts(t *testing.T) {
	user := uuid.New()
	now := time.Date(2024, 6, 15, 22, 0, 0, 0, time.UTC)
	src := &fakeIntakeSource{}
	svc := NewService(src, &fakeRxSource{total: 4, active: 2, medicines: 2})
	svc.now = func() time.Time { return now }

	snap, err := svc.ComposeDashboard(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Prescriptions != 4 || snap.ActivePrescriptions != 2 || snap.ActiveMedicines != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", snap.Prescriptions, snap.ActivePrescriptions, snap.ActiveMedicines)
	}
	if snap.StreakDays != 0 || snap.LastDose != nil {
		t.Errorf("expected empty intake history, got %+v", snap)
	}
}

func TestRoundRate(t *testing.T) {
	tests := []struct {
		taken, total int
		want         float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 1, 100},
		{1, 8, 12.5},
		{5, 1000, 0.5},
		{1, 1000, 0.1},
		{1, 6, 16.67},
	}
	for _, tt := range tests {
		if got := roundRate(tt.taken, tt.total); got != tt.want {
			t.Errorf("roundRate(%d, %d) = %v, want %v", tt.taken, tt.total, got, tt.want)
		}
	}
}
