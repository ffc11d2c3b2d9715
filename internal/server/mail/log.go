package mail

import (
	"context"

	"github.com/reactivities/identity/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail not delivered (log driver)",
		"from", msg.From.Email,
		"to", msg.To.Email,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
