package billing

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/payments"
)

type mockSubRepo struct {
	subs    map[uuid.UUID]*Subscription
	listErr error
}

func newMockSubRepo() *mockSubRepo {
	return &mockSubRepo{subs: make(map[uuid.UUID]*Subscription)}
}

func (m *mockSubRepo) Create(_ context.Context, s *Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	m.subs[s.ID] = s
	return nil
}

func (m *mockSubRepo) GetByID(_ context.Context, id uuid.UUID) (*Subscription, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSubRepo) GetBySessionID(_ context.Context, sessionID string) (*Subscription, error) {
	for _, s := range m.subs {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockSubRepo) Update(_ context.Context, s *Subscription) error {
	if _, ok := m.subs[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.subs[s.ID] = s
	return nil
}

func (m *mockSubRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Subscription, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

const testSecret = "whsec_test"

func newTestBilling() (*Service, *mockSubRepo, *payments.MockGateway) {
	repo := newMockSubRepo()
	gw := &payments.MockGateway{}
	svc := NewService(repo, gw, Config{WebhookSecret: testSecret, ReturnURL: "https://app.example.com/return"})
	return svc, repo, gw
}

func signedPayload(t *testing.T, event WebhookEvent) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload, payments.Sign(payload, testSecret)
}

func TestCheckout(t *testing.T) {
	svc, repo, gw := newTestBilling()
	user := uuid.New()

	sub, session, err := svc.Checkout(context.Background(), user, PlanMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusPending {
		t.Errorf("status = %q, want PENDING", sub.Status)
	}
	if session.SessionID == "" || sub.SessionID != session.SessionID {
		t.Error("subscription must be tied to the gateway session")
	}
	if len(repo.subs) != 1 {
		t.Error("expected subscription stored")
	}
	calls := gw.Calls()
	if len(calls) != 1 || calls[0].AmountINR != PlanMonthly.PriceINR() {
		t.Errorf("gateway calls = %+v", calls)
	}
}

func TestCheckout_InvalidPlan(t *testing.T) {
	svc, _, gw := newTestBilling()

	if _, _, err := svc.Checkout(context.Background(), uuid.New(), Plan("WEEKLY")); err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if len(gw.Calls()) != 0 {
		t.Error("invalid plans must not reach the gateway")
	}
}

func TestCheckout_StoreErrorPropagates(t *testing.T) {
	svc, repo, gw := newTestBilling()
	repo.listErr = errors.New("store unavailable")

	if _, _, err := svc.Checkout(context.Background(), uuid.New(), PlanMonthly); err == nil {
		t.Fatal("expected checkout to fail when the store is unavailable")
	}
	if len(gw.Calls()) != 0 {
		t.Error("a store outage must not reach the gateway")
	}
	if len(repo.subs) != 0 {
		t.Error("no subscription may be created on a store outage")
	}
}

func TestCheckout_RejectsSecondActive(t *testing.T) {
	svc, _, _ := newTestBilling()
	user := uuid.New()
	ctx := context.Background()

	_, session, err := svc.Checkout(ctx, user, PlanMonthly)
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	payload, sig := signedPayload(t, WebhookEvent{SessionID: session.SessionID, Status: "paid"})
	if _, err := svc.HandleWebhook(ctx, payload, sig); err != nil {
		t.Fatalf("webhook: %v", err)
	}

	if _, _, err := svc.Checkout(ctx, user, PlanYearly); err == nil {
		t.Fatal("expected second checkout to be rejected while active")
	}
}

func TestHandleWebhook_Paid(t *testing.T) {
	svc, _, _ := newTestBilling()
	ctx := context.Background()
	_, session, _ := svc.Checkout(ctx, uuid.New(), PlanMonthly)

	payload, sig := signedPayload(t, WebhookEvent{SessionID: session.SessionID, Status: "paid"})
	sub, err := svc.HandleWebhook(ctx, payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusActive || sub.StartsAt == nil || sub.ExpiresAt == nil {
		t.Errorf("subscription = %+v, want active with period set", sub)
	}
	if !sub.ActiveAt(sub.StartsAt.Add(time.Hour)) {
		t.Error("expected subscription active inside its period")
	}
	if sub.ActiveAt(sub.ExpiresAt.Add(time.Hour)) {
		t.Error("expected subscription inactive after expiry")
	}

	// Replays settle idempotently.
	again, err := svc.HandleWebhook(ctx, payload, sig)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !again.StartsAt.Equal(*sub.StartsAt) {
		t.Error("replay must not restart the period")
	}
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	svc, _, _ := newTestBilling()
	ctx := context.Background()
	_, session, _ := svc.Checkout(ctx, uuid.New(), PlanMonthly)

	payload, _ := json.Marshal(WebhookEvent{SessionID: session.SessionID, Status: "paid"})
	if _, err := svc.HandleWebhook(ctx, payload, "deadbeef"); err == nil {
		t.Fatal("expected signature rejection")
	}
	if _, err := svc.HandleWebhook(ctx, payload, payments.Sign(payload, "other-secret")); err == nil {
		t.Fatal("expected rejection for wrong secret")
	}
}

func TestHandleWebhook_UnknownSessionAndStatus(t *testing.T) {
	svc, _, _ := newTestBilling()
	ctx := context.Background()

	payload, sig := signedPayload(t, WebhookEvent{SessionID: "sess_missing", Status: "paid"})
	if _, err := svc.HandleWebhook(ctx, payload, sig); err == nil {
		t.Fatal("expected error for unknown session")
	}

	_, session, _ := svc.Checkout(ctx, uuid.New(), PlanMonthly)
	payload, sig = signedPayload(t, WebhookEvent{SessionID: session.SessionID, Status: "exploded"})
	if _, err := svc.HandleWebhook(ctx, payload, sig); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestHandleWebhook_Failed(t *testing.T) {
	svc, _, _ := newTestBilling()
	ctx := context.Background()
	_, session, _ := svc.Checkout(ctx, uuid.New(), PlanMonthly)

	payload, sig := signedPayload(t, WebhookEvent{SessionID: session.SessionID, Status: "failed"})
	sub, err := svc.HandleWebhook(ctx, payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusFailed {
		t.Errorf("status = %q, want FAILED", sub.Status)
	}
}

func TestCancel(t *testing.T) {
	svc, _, _ := newTestBilling()
	ctx := context.Background()
	user := uuid.New()
	sub, _, _ := svc.Checkout(ctx, user, PlanMonthly)

	if err := svc.Cancel(ctx, uuid.New(), sub.ID); err == nil {
		t.Error("expected error cancelling someone else's subscription")
	}
	if err := svc.Cancel(ctx, user, sub.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusCancelled {
		t.Errorf("status = %q, want CANCELLED", sub.Status)
	}
}
