package notify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"

	"example.com/gatherly/services/events/config"
)

// Mailer is the outbound email transport. Send attempts a single delivery and
// reports whether the transport accepted it; a timed-out or refused send is an
// error, never silent.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages over SMTP.
type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPMailer creates a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create SMTP client")
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// Send delivers one message. The context bounds the whole dial-and-send so a
// hung transport cannot stall the rest of a fan-out.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()

	fromName := msg.FromName
	if fromName == "" {
		fromName = m.fromName
	}
	if err := mm.FromFormat(fromName, m.from); err != nil {
		return errors.Wrap(err, "invalid from address")
	}
	if err := mm.To(msg.To); err != nil {
		return errors.Wrap(err, "invalid recipient address")
	}
	if len(msg.Bcc) > 0 {
		if err := mm.Bcc(msg.Bcc...); err != nil {
			return errors.Wrap(err, "invalid bcc address")
		}
	}

	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return errors.Wrap(err, "failed to send mail")
	}
	return nil
}
