// Package push delivers mobile push notifications through an external
// gateway. The core only depends on the Notifier interface; delivery failures
// are reported to the caller and never retried here.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Message is a single push notification addressed by device token.
type Message struct {
	DeviceToken string            `json:"device_token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// Notifier is the interface for delivering push messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// GatewayNotifier sends messages to an HTTP push gateway (FCM-style JSON API).
type GatewayNotifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGatewayNotifier(baseURL, apiKey string) *GatewayNotifier {
	return &GatewayNotifier{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *GatewayNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.DeviceToken == "" {
		return fmt.Errorf("device token is required")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards all messages. Used when no gateway is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Message) error { return nil }

// MockNotifier is a test double that records delivered messages.
type MockNotifier struct {
	mu         sync.Mutex
	calls      []Message
	ShouldFail bool
	FailError  string
}

// Notify records the call and optionally returns an error.
func (m *MockNotifier) Notify(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, msg)
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded messages.
func (m *MockNotifier) Calls() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.calls))
	copy(out, m.calls)
	return out
}
