package email

import (
	"context"
	"log/slog"
)

// logSender implements Sender for local development: instead of delivering,
// it logs the message so the reset link can be copied from the console.
type logSender struct {
	log *slog.Logger
}

// NewLogSender creates a development sender that logs instead of sending.
func NewLogSender(log *slog.Logger) Sender {
	return &logSender{log: log}
}

func (s *logSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "email suppressed in development",
		slog.String("send_to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("body_html", params.BodyHTML),
	)
	return nil
}
