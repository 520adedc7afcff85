package notify

import (
	"fmt"
	"strings"

	"example.com/gatherly/services/events/internal/models"
)

// Message kinds, one per notification trigger.
const (
	KindEventCreated       = "event_created"
	KindEventUpdated       = "event_updated"
	KindEventCancelled     = "event_cancelled"
	KindSignupConfirmation = "signup_confirmation"
	KindSignupReceived     = "signup_received"
)

// Message is a single outbound email.
type Message struct {
	Kind     string
	To       string
	Bcc      []string
	FromName string
	Subject  string
	Text     string
	HTML     string
}

const whenFormat = "Monday, January 2, 2006 at 3:04 PM"

func eventWhen(e *models.Event) string {
	return e.DateTime.Format(whenFormat)
}

// fieldLabels maps diff field names to the wording used in update emails.
var fieldLabels = map[string]string{
	"title":            "title",
	"description":      "description",
	"location":         "location",
	"date_time":        "date and time",
	"end_time":         "end time",
	"max_participants": "capacity",
	"coordinator_name": "coordinator name",
}

func changedList(changed []string) string {
	labels := make([]string, 0, len(changed))
	for _, f := range changed {
		if label, ok := fieldLabels[f]; ok {
			labels = append(labels, label)
		} else {
			labels = append(labels, f)
		}
	}
	return strings.Join(labels, ", ")
}

func createdMessage(e *models.Event, links models.EventLinks) Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nYour event %q is set up for %s at %s.\n\n"+
			"Share this link with participants:\n%s\n\n"+
			"Manage your event here:\n%s\n",
		e.CoordinatorName, e.Title, eventWhen(e), e.Location, links.Public, links.Manage)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your event <strong>%s</strong> is set up for %s at %s.</p>"+
			"<p>Share this link with participants:<br><a href=%q>%s</a></p>"+
			"<p>Manage your event here:<br><a href=%q>%s</a></p>",
		e.CoordinatorName, e.Title, eventWhen(e), e.Location,
		links.Public, links.Public, links.Manage, links.Manage)
	return Message{
		Kind:    KindEventCreated,
		To:      e.CoordinatorEmail,
		Subject: fmt.Sprintf("Your event %q is live", e.Title),
		Text:    text,
		HTML:    html,
	}
}

func updatedMessage(e *models.Event, to string, changed []string) Message {
	list := changedList(changed)
	text := fmt.Sprintf(
		"The event %q has been updated. Changed: %s.\n\n"+
			"It now takes place on %s at %s.\n",
		e.Title, list, eventWhen(e), e.Location)
	html := fmt.Sprintf(
		"<p>The event <strong>%s</strong> has been updated. Changed: %s.</p>"+
			"<p>It now takes place on %s at %s.</p>",
		e.Title, list, eventWhen(e), e.Location)
	return Message{
		Kind:     KindEventUpdated,
		To:       to,
		FromName: e.CoordinatorName,
		Subject:  fmt.Sprintf("Update to %q", e.Title),
		Text:     text,
		HTML:     html,
	}
}

func cancelledMessage(e *models.Event, to string, bcc []string) Message {
	text := fmt.Sprintf(
		"The event %q on %s has been cancelled.\n", e.Title, eventWhen(e))
	html := fmt.Sprintf(
		"<p>The event <strong>%s</strong> on %s has been cancelled.</p>",
		e.Title, eventWhen(e))
	if e.CancellationMessage != "" {
		text += fmt.Sprintf("\nMessage from the coordinator:\n%s\n", e.CancellationMessage)
		html += fmt.Sprintf("<p>Message from the coordinator:</p><p>%s</p>", e.CancellationMessage)
	}
	return Message{
		Kind:     KindEventCancelled,
		To:       to,
		Bcc:      bcc,
		FromName: e.CoordinatorName,
		Subject:  fmt.Sprintf("Cancelled: %s on %s", e.Title, eventWhen(e)),
		Text:     text,
		HTML:     html,
	}
}

func signupConfirmation(e *models.Event, s *models.Signup) Message {
	text := fmt.Sprintf(
		"Hi %s,\n\nYou're signed up for %q on %s at %s.\n\nSee you there!\n",
		s.Name, e.Title, eventWhen(e), e.Location)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>You're signed up for <strong>%s</strong> on %s at %s.</p><p>See you there!</p>",
		s.Name, e.Title, eventWhen(e), e.Location)
	return Message{
		Kind:     KindSignupConfirmation,
		To:       s.Email,
		FromName: e.CoordinatorName,
		Subject:  fmt.Sprintf("You're in: %s", e.Title),
		Text:     text,
		HTML:     html,
	}
}

func signupReceived(e *models.Event, s *models.Signup, total int64) Message {
	contact := s.Email
	if contact == "" {
		contact = s.Phone
	}
	text := fmt.Sprintf(
		"%s (%s) signed up for %q on %s.\n\nSignups so far: %d of %d.\n",
		s.Name, contact, e.Title, eventWhen(e), total, e.MaxParticipants)
	html := fmt.Sprintf(
		"<p>%s (%s) signed up for <strong>%s</strong> on %s.</p><p>Signups so far: %d of %d.</p>",
		s.Name, contact, e.Title, eventWhen(e), total, e.MaxParticipants)
	return Message{
		Kind:    KindSignupReceived,
		To:      e.CoordinatorEmail,
		Subject: fmt.Sprintf("New signup for %s", e.Title),
		Text:    text,
		HTML:    html,
	}
}
