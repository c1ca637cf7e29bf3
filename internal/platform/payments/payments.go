// Package payments integrates with an external payment gateway over HTTP.
// The gateway is opaque to the core: it only initiates checkout sessions and
// verifies HMAC-SHA256 signatures on webhook callbacks.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CheckoutRequest describes a checkout session to create at the gateway.
type CheckoutRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Plan      string    `json:"plan"`
	AmountINR int       `json:"amount_inr"`
	ReturnURL string    `json:"return_url"`
}

// CheckoutSession is the gateway's handle for a pending payment.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// Gateway is the payment gateway collaborator.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// HTTPGateway implements Gateway against the configured base URL.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

// Sign computes the hex-encoded HMAC-SHA256 of payload with secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature returns true when the hex-encoded signature matches the
// HMAC-SHA256 of payload under secret.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// MockGateway is a test double that records checkout requests.
type MockGateway struct {
	mu         sync.Mutex
	calls      []CheckoutRequest
	Session    CheckoutSession
	ShouldFail bool
}

func (m *MockGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.ShouldFail {
		return nil, errors.New("gateway unavailable")
	}
	s := m.Session
	if s.SessionID == "" {
		s = CheckoutSession{SessionID: "sess_" + uuid.NewString(), CheckoutURL: "https://pay.example.com/s"}
	}
	return &s, nil
}

// Calls returns a copy of recorded checkout requests.
func (m *MockGateway) Calls() []CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CheckoutRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
