package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/payments"
)

type Config struct {
	// WebhookSecret verifies gateway callback signatures.
	WebhookSecret string
	// ReturnURL is where the gateway sends the user after checkout.
	ReturnURL string
}

type Service struct {
	subs    Repository
	gateway payments.Gateway
	cfg     Config
	now     func() time.Time
}

func NewService(subs Repository, gateway payments.Gateway, cfg Config) *Service {
	return &Service{subs: subs, gateway: gateway, cfg: cfg, now: time.Now}
}

// Checkout starts a pending subscription and opens a gateway session for it.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, plan Plan) (*Subscription, *payments.CheckoutSession, error) {
	if _, err := ParsePlan(string(plan)); err != nil {
		return nil, nil, err
	}
	active, err := s.activeSubscriptions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(active) > 0 {
		return nil, nil, fmt.Errorf("an active subscription already exists")
	}

	session, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		UserID:    userID,
		Plan:      string(plan),
		AmountINR: plan.PriceINR(),
		ReturnURL: s.cfg.ReturnURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create checkout: %w", err)
	}

	sub := &Subscription{
		UserID:    userID,
		Plan:      plan,
		Status:    StatusPending,
		SessionID: session.SessionID,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, nil, err
	}
	return sub, session, nil
}

func (s *Service) activeSubscriptions(ctx context.Context, userID uuid.UUID) ([]*Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []*Subscription
	for _, sub := range subs {
		if sub.ActiveAt(now) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// WebhookEvent is the gateway's callback payload.
type WebhookEvent struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// HandleWebhook verifies the signature over the raw payload and settles the
// matching subscription. Unknown sessions are an error; replayed success
// events are idempotent.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Subscription, error) {
	if !payments.VerifySignature(payload, s.cfg.WebhookSecret, signature) {
		return nil, fmt.Errorf("invalid webhook signature")
	}
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	sub, err := s.subs.GetBySessionID(ctx, event.SessionID)
	if err != nil {
		return nil, err
	}

	switch event.Status {
	case "paid":
		if sub.Status == StatusActive {
			return sub, nil
		}
		now := s.now()
		expires := now.Add(sub.Plan.Duration())
		sub.Status = StatusActive
		sub.StartsAt = &now
		sub.ExpiresAt = &expires
	case "failed", "expired":
		sub.Status = StatusFailed
	default:
		return nil, fmt.Errorf("unknown webhook status %q", event.Status)
	}

	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Current returns the user's newest subscription, if any.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return subs[0], nil
}

// Cancel turns off auto-renewal intent; the subscription stays usable until
// its expiry.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) error {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return fmt.Errorf("subscription does not belong to the caller")
	}
	if sub.Status != StatusActive && sub.Status != StatusPending {
		return fmt.Errorf("subscription is not active")
	}
	sub.Status = StatusCancelled
	return s.subs.Update(ctx, sub)
}
