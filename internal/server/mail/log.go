package mail

import (
	"context"

	"github.com/dmitrijs2005/storegate/internal/logging"
)

// LogSender records that a message would have been sent. The body is never
// logged since it may carry a verification code.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail delivery disabled, message dropped", "to", msg.To, "subject", msg.Subject)
	return nil
}
