package prescription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

// -- Mocks --

type mockRxRepo struct {
	rx        map[uuid.UUID]*Prescription
	schedules map[uuid.UUID]*Schedule
}

func newMockRxRepo() *mockRxRepo {
	return &mockRxRepo{
		rx:        make(map[uuid.UUID]*Prescription),
		schedules: make(map[uuid.UUID]*Schedule),
	}
}

func (m *mockRxRepo) Create(_ context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.rx[p.ID] = p
	return nil
}

func (m *mockRxRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.rx[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRxRepo) Update(_ context.Context, p *Prescription) error {
	if _, ok := m.rx[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.rx[p.ID] = p
	return nil
}

func (m *mockRxRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rx, id)
	return nil
}

func (m *mockRxRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var out []*Prescription
	for _, p := range m.rx {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRxRepo) CountForUser(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.rx {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockRxRepo) CountActiveForUser(_ context.Context, userID uuid.UUID, day time.Time) (int, error) {
	n := 0
	for _, p := range m.rx {
		if p.UserID == userID && p.IsActiveOn(day) {
			n++
		}
	}
	return n, nil
}

func (m *mockRxRepo) CountDistinctActiveMedicines(_ context.Context, userID uuid.UUID, day time.Time) (int, error) {
	meds := make(map[uuid.UUID]struct{})
	for _, p := range m.rx {
		if p.UserID == userID && p.IsActiveOn(day) {
			meds[p.MedicineID] = struct{}{}
		}
	}
	return len(meds), nil
}

func (m *mockRxRepo) AddSchedule(_ context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.schedules[s.ID] = s
	return nil
}

func (m *mockRxRepo) GetSchedule(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockRxRepo) ListSchedules(_ context.Context, prescriptionID uuid.UUID) ([]*Schedule, error) {
	var out []*Schedule
	for _, s := range m.schedules {
		if s.PrescriptionID == prescriptionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRxRepo) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	delete(m.schedules, id)
	return nil
}

type selfOnlyAccess struct{}

func (selfOnlyAccess) Authorize(_ context.Context, actorID uuid.UUID, role string, target *uuid.UUID) (guardian.Scope, error) {
	if target == nil {
		return guardian.SingleScope(actorID), nil
	}
	if role == auth.RoleAdmin || *target == actorID {
		return guardian.SingleScope(*target), nil
	}
	return nil, guardian.ErrForbidden
}

func setupRxService() (*Service, *mockRxRepo) {
	repo := newMockRxRepo()
	return NewService(repo, selfOnlyAccess{}), repo
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// -- Tests --

func TestIsActiveOn(t *testing.T) {
	day := time.Date(2024, 6, 15, 13, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		rx     Prescription
		active bool
	}{
		{"open both sides", Prescription{}, true},
		{"inside window", Prescription{StartDate: datePtr(2024, 6, 1), EndDate: datePtr(2024, 6, 30)}, true},
		{"starts today", Prescription{StartDate: datePtr(2024, 6, 15)}, true},
		{"ends today", Prescription{EndDate: datePtr(2024, 6, 15)}, true},
		{"not started", Prescription{StartDate: datePtr(2024, 6, 16)}, false},
		{"already ended", Prescription{EndDate: datePtr(2024, 6, 14)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rx.IsActiveOn(day); got != tt.active {
				t.Errorf("IsActiveOn = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := setupRxService()
	actor := uuid.New()

	if _, err := svc.Create(context.Background(), actor, auth.RoleUser,
		&Prescription{UserID: actor}); err == nil {
		t.Error("expected error for missing medicine_id")
	}
	if _, err := svc.Create(context.Background(), actor, auth.RoleUser,
		&Prescription{UserID: actor, MedicineID: uuid.New(),
			StartDate: datePtr(2024, 6, 10), EndDate: datePtr(2024, 6, 1)}); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestCreate_ForbiddenForStranger(t *testing.T) {
	svc, _ := setupRxService()

	_, err := svc.Create(context.Background(), uuid.New(), auth.RoleUser,
		&Prescription{UserID: uuid.New(), MedicineID: uuid.New()})
	if !errors.Is(err, guardian.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGet_NotFoundPrecedesForbidden(t *testing.T) {
	svc, _ := setupRxService()

	_, err := svc.Get(context.Background(), uuid.New(), auth.RoleUser, uuid.New())
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected row-absence error, got %v", err)
	}
}

func TestUpdate_PreservesOwnerAndMedicine(t *testing.T) {
	svc, repo := setupRxService()
	owner := uuid.New()
	med := uuid.New()
	p := &Prescription{UserID: owner, MedicineID: med}
	_ = repo.Create(context.Background(), p)

	dosage := "10mg"
	updated, err := svc.Update(context.Background(), owner, auth.RoleUser,
		&Prescription{ID: p.ID, UserID: uuid.New(), MedicineID: uuid.New(), Dosage: &dosage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.UserID != owner || updated.MedicineID != med {
		t.Error("update must not reassign owner or medicine")
	}
	if updated.Dosage == nil || *updated.Dosage != "10mg" {
		t.Error("expected dosage updated")
	}
}

func TestAddSchedule(t *testing.T) {
	svc, repo := setupRxService()
	owner := uuid.New()
	p := &Prescription{UserID: owner, MedicineID: uuid.New()}
	_ = repo.Create(context.Background(), p)

	sc, err := svc.AddSchedule(context.Background(), owner, auth.RoleUser,
		&Schedule{PrescriptionID: p.ID, IntakeTime: "08:30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.schedules[sc.ID]; !ok {
		t.Error("expected schedule stored")
	}

	_, err = svc.AddSchedule(context.Background(), owner, auth.RoleUser,
		&Schedule{PrescriptionID: p.ID, IntakeTime: "8:30am"})
	if err == nil {
		t.Error("expected error for malformed intake_time")
	}
}

func TestCountActive(t *testing.T) {
	_, repo := setupRxService()
	owner := uuid.New()
	med := uuid.New()
	ctx := context.Background()
	_ = repo.Create(ctx, &Prescription{UserID: owner, MedicineID: med})
	_ = repo.Create(ctx, &Prescription{UserID: owner, MedicineID: med, EndDate: datePtr(2020, 1, 1)})
	_ = repo.Create(ctx, &Prescription{UserID: owner, MedicineID: uuid.New()})

	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	active, _ := repo.CountActiveForUser(ctx, owner, day)
	if active != 2 {
		t.Errorf("expected 2 active, got %d", active)
	}
	meds, _ := repo.CountDistinctActiveMedicines(ctx, owner, day)
	if meds != 2 {
		t.Errorf("expected 2 distinct medicines, got %d", meds)
	}
}
