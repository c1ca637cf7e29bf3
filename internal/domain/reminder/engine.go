package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/intake"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/push"
)

// EventSource is the slice of the intake store the engine needs.
type EventSource interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*intake.Event, error)
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// DeviceSource resolves which of the given users hold push registrations.
type DeviceSource interface {
	ListWithDeviceToken(ctx context.Context, ids []uuid.UUID) ([]*Device, error)
}

// Device pairs a user with their push token.
type Device struct {
	UserID uuid.UUID
	Token  string
}

const dueBatchSize = 200

type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// Grace is how long past the reminder time an unresolved dose waits
	// before the sweep resolves it to no-response.
	Grace time.Duration
}

// Engine periodically delivers push reminders for due doses and expires
// doses left unresolved past the grace period.
type Engine struct {
	cfg      Config
	events   EventSource
	devices  DeviceSource
	notifier push.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewEngine(cfg Config, events EventSource, devices DeviceSource, notifier push.Notifier, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		events:   events,
		devices:  devices,
		notifier: notifier,
		log:      log.With().Str("component", "reminder").Logger(),
		now:      time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Sweep(ctx); err != nil {
					e.log.Error().Err(err).Msg("reminder sweep failed")
				}
			}
		}
	}()
}

// Sweep is one pass: notify due doses, then expire overdue ones. Exported so
// the serve command can run an immediate pass at startup.
func (e *Engine) Sweep(ctx context.Context) error {
	now := e.now()

	due, err := e.events.ListDue(ctx, now, dueBatchSize)
	if err != nil {
		return fmt.Errorf("list due doses: %w", err)
	}
	if len(due) > 0 {
		if err := e.notify(ctx, due, now); err != nil {
			return err
		}
	}

	expired, err := e.events.ExpireOverdue(ctx, now.Add(-e.cfg.Grace))
	if err != nil {
		return fmt.Errorf("expire overdue doses: %w", err)
	}
	if expired > 0 {
		e.log.Info().Int64("count", expired).Msg("expired unresolved doses")
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, due []*intake.Event, now time.Time) error {
	userIDs := make([]uuid.UUID, 0, len(due))
	seen := make(map[uuid.UUID]struct{})
	for _, ev := range due {
		if _, ok := seen[ev.UserID]; !ok {
			seen[ev.UserID] = struct{}{}
			userIDs = append(userIDs, ev.UserID)
		}
	}

	devices, err := e.devices.ListWithDeviceToken(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("resolve devices: %w", err)
	}
	tokens := make(map[uuid.UUID]string, len(devices))
	for _, d := range devices {
		tokens[d.UserID] = d.Token
	}

	for _, ev := range due {
		token, ok := tokens[ev.UserID]
		if !ok {
			// No registered device. Mark anyway so the dose is not re-swept
			// every interval; the overdue expiry still applies.
			if err := e.events.MarkNotified(ctx, ev.ID, now); err != nil {
				return err
			}
			continue
		}
		msg := push.Message{
			DeviceToken: token,
			Title:       "Medication reminder",
			Body:        fmt.Sprintf("Time to take %s", ev.MedicineName),
			Data:        map[string]string{"intake_event_id": ev.ID.String()},
		}
		if err := e.notifier.Notify(ctx, msg); err != nil {
			e.log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("push delivery failed")
			continue
		}
		if err := e.events.MarkNotified(ctx, ev.ID, now); err != nil {
			return err
		}
	}
	return nil
}
