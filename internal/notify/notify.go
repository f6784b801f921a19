// Package notify turns queued billing notifications into outbound messages.
// Dispatch is a closed switch over the notification kinds; each kind's handler
// is independently testable.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Sender delivers a rendered message. The production deployment hands messages
// to the transactional mail service; development logs them.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes deliveries to the log instead of sending them.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("notification delivered")
	return nil
}

// Notification is a claimed queue row enriched with the org's contact.
type Notification struct {
	ID             string
	OrganisationID string
	Kind           domain.NotificationKind
	Payload        json.RawMessage
	OrgName        string
	OwnerEmail     string
}

type trialPayload struct {
	TrialEnd time.Time `json:"trial_end"`
	Plan     string    `json:"plan"`
}

type overagePayload struct {
	Overage int `json:"overage"`
}

// Dispatcher routes notifications to their kind's handler.
type Dispatcher struct {
	Sender Sender
}

func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	switch n.Kind {
	case domain.NotificationTrialExpiringSoon:
		return d.trialExpiringSoon(ctx, n)
	case domain.NotificationTrialExpired:
		return d.trialExpired(ctx, n)
	case domain.NotificationSeatOverage:
		return d.seatOverage(ctx, n)
	default:
		return fmt.Errorf("unsupported notification kind %q", n.Kind)
	}
}

func (d *Dispatcher) trialExpiringSoon(ctx context.Context, n Notification) error {
	var p trialPayload
	if err := json.Unmarshal(n.Payload, &p); err != nil {
		return fmt.Errorf("decode trial payload: %w", err)
	}
	subject := fmt.Sprintf("Your %s trial ends on %s", n.OrgName, p.TrialEnd.Format(time.DateOnly))
	body := fmt.Sprintf("The trial for %s ends on %s. Add a payment method to keep your workspace.",
		n.OrgName, p.TrialEnd.Format(time.DateOnly))
	return d.Sender.Send(ctx, n.OwnerEmail, subject, body)
}

func (d *Dispatcher) trialExpired(ctx context.Context, n Notification) error {
	var p trialPayload
	if err := json.Unmarshal(n.Payload, &p); err != nil {
		return fmt.Errorf("decode trial payload: %w", err)
	}
	subject := fmt.Sprintf("Trial expired for %s", n.OrgName)
	body := fmt.Sprintf("The trial for %s ended on %s. API access is paused until a payment method is added.",
		n.OrgName, p.TrialEnd.Format(time.DateOnly))
	return d.Sender.Send(ctx, n.OwnerEmail, subject, body)
}

func (d *Dispatcher) seatOverage(ctx context.Context, n Notification) error {
	var p overagePayload
	if err := json.Unmarshal(n.Payload, &p); err != nil {
		return fmt.Errorf("decode overage payload: %w", err)
	}
	subject := fmt.Sprintf("Seat overage on %s", n.OrgName)
	body := fmt.Sprintf("%s has %d active member(s) beyond the seats included in its plan. Purchase additional seats to cover them.",
		n.OrgName, p.Overage)
	return d.Sender.Send(ctx, n.OwnerEmail, subject, body)
}
