// Package notify implements the post-commit notification fan-out. Every
// delivery is best effort: the triggering state change has already committed
// by the time a dispatch runs, so failures here are absorbed into a logged
// report and never propagate to the caller of the primary mutation.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/gatherly/services/events/internal/models"
)

// Attempt records the outcome of one recipient's send. Attempts live only for
// the duration of a dispatch; there is no durable outbox and no retry.
type Attempt struct {
	Recipient string
	Kind      string
	Err       error
}

// Report aggregates per-recipient outcomes of a single dispatch.
type Report struct {
	Sent     int
	Failed   int
	Attempts []Attempt
}

// Notifier composes and dispatches the per-trigger recipient sets.
type Notifier struct {
	mailer      Mailer
	opsAddress  string
	sendTimeout time.Duration
}

// NewNotifier creates a notifier. opsAddress is the fixed operational address
// blind-copied on cancellation notices.
func NewNotifier(mailer Mailer, opsAddress string, sendTimeout time.Duration) *Notifier {
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &Notifier{
		mailer:      mailer,
		opsAddress:  opsAddress,
		sendTimeout: sendTimeout,
	}
}

// EventCreated notifies the owning coordinator of a new event.
func (n *Notifier) EventCreated(ctx context.Context, event *models.Event, links models.EventLinks) Report {
	return n.dispatch(ctx, event.ID, []Message{createdMessage(event, links)})
}

// EventUpdated notifies the coordinator and every signup with an email
// address of the changed fields.
func (n *Notifier) EventUpdated(ctx context.Context, event *models.Event, signups []models.Signup, changed []string) Report {
	msgs := []Message{updatedMessage(event, event.CoordinatorEmail, changed)}
	for _, s := range signups {
		if s.Email == "" {
			continue
		}
		msgs = append(msgs, updatedMessage(event, s.Email, changed))
	}
	return n.dispatch(ctx, event.ID, msgs)
}

// EventCancelled notifies every signup with an email address, each message
// blind-copied to the operational address and the coordinator.
func (n *Notifier) EventCancelled(ctx context.Context, event *models.Event, signups []models.Signup) Report {
	bcc := make([]string, 0, 2)
	if n.opsAddress != "" {
		bcc = append(bcc, n.opsAddress)
	}
	if event.CoordinatorEmail != "" {
		bcc = append(bcc, event.CoordinatorEmail)
	}

	var msgs []Message
	for _, s := range signups {
		if s.Email == "" {
			continue
		}
		msgs = append(msgs, cancelledMessage(event, s.Email, bcc))
	}
	return n.dispatch(ctx, event.ID, msgs)
}

// SignupAdmitted confirms a new signup to the signee (when an email was
// given) and notifies the coordinator.
func (n *Notifier) SignupAdmitted(ctx context.Context, event *models.Event, signup *models.Signup, total int64) Report {
	var msgs []Message
	if signup.Email != "" {
		msgs = append(msgs, signupConfirmation(event, signup))
	}
	msgs = append(msgs, signupReceived(event, signup, total))
	return n.dispatch(ctx, event.ID, msgs)
}

// dispatch sends every message independently and in parallel. One recipient's
// failure never blocks or aborts the others; each send carries its own
// timeout so a hung transport cannot stall the batch.
func (n *Notifier) dispatch(ctx context.Context, eventID string, msgs []Message) Report {
	report := Report{Attempts: make([]Attempt, len(msgs))}
	if len(msgs) == 0 {
		return report
	}

	var wg sync.WaitGroup
	for i, msg := range msgs {
		wg.Add(1)
		go func(i int, msg Message) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
			defer cancel()

			err := n.mailer.Send(sendCtx, msg)
			report.Attempts[i] = Attempt{Recipient: msg.To, Kind: msg.Kind, Err: err}
			if err != nil {
				log.Warn().
					Err(err).
					Str("event_id", eventID).
					Str("kind", msg.Kind).
					Str("recipient", msg.To).
					Msg("Notification delivery failed")
			}
		}(i, msg)
	}
	wg.Wait()

	for _, a := range report.Attempts {
		if a.Err != nil {
			report.Failed++
		} else {
			report.Sent++
		}
	}

	log.Info().
		Str("event_id", eventID).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("Notification fan-out finished")

	return report
}
