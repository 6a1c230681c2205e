package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Console writes messages to the log instead of sending them.
type Console struct {
	logger *zap.Logger
}

var _ Mailer = (*Console)(nil)

func NewConsole(logger *zap.Logger) *Console {
	return &Console{logger: logger}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	c.logger.Info("email",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)

	return nil
}
