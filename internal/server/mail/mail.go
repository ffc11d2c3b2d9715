// Package mail delivers transactional email such as verification links.
// The driver is chosen by configuration: SendGrid for production, an S3
// outbox for staging environments, and the log for local development.
package mail

import (
	"context"
	"fmt"

	"github.com/reactivities/identity/internal/logging"
	"github.com/reactivities/identity/internal/server/config"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Message is a single outgoing email.
type Message struct {
	From      Address `json:"from"`
	To        Address `json:"to"`
	Subject   string  `json:"subject"`
	PlainText string  `json:"plainText,omitempty"`
	HTML      string  `json:"html,omitempty"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.MailDriver. Messages sent through
// it get cfg's from address unless they set one.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Sender, error) {
	from := Address{Name: cfg.MailFromName, Email: cfg.MailFromAddress}

	var s Sender
	switch cfg.MailDriver {
	case config.MailDriverLog:
		s = NewLogSender(logger)
	case config.MailDriverSendGrid:
		s = NewSendGridSender(cfg.SendGridKey)
	case config.MailDriverS3:
		outbox, err := NewS3Outbox(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 outbox: %w", err)
		}
		s = outbox
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
	return &defaultFrom{next: s, from: from}, nil
}

type defaultFrom struct {
	next Sender
	from Address
}

func (d *defaultFrom) Send(ctx context.Context, msg Message) error {
	if msg.From.Email == "" {
		msg.From = d.from
	}
	return d.next.Send(ctx, msg)
}
