package notify

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of mailing them.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: slog.Default().With("component", "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Warn("mail transport not configured, logging message",
		"template", msg.Template,
		"subject", msg.Subject,
		"urgent", msg.Urgent,
		"body", msg.Text,
	)
	return nil
}
