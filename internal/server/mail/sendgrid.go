package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridSend is a seam for tests.
var sendGridSend = func(ctx context.Context, apiKey string, m *sgmail.SGMailV3) (*rest.Response, error) {
	return sendgrid.NewSendClient(apiKey).SendWithContext(ctx, m)
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	apiKey string
}

func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := sgmail.NewSingleEmail(
		sgmail.NewEmail(msg.From.Name, msg.From.Email),
		msg.Subject,
		sgmail.NewEmail(msg.To.Name, msg.To.Email),
		msg.PlainText,
		msg.HTML,
	)
	// verification links must reach the user untouched
	off := false
	m.SetTrackingSettings(&sgmail.TrackingSettings{
		ClickTracking: &sgmail.ClickTrackingSetting{Enable: &off, EnableText: &off},
	})

	resp, err := sendGridSend(ctx, s.apiKey, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
