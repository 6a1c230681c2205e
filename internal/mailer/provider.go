package mailer

import (
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/config"
)

// New returns the provider named by conf.Provider.
func New(conf *config.MailConfig) Mailer {
	if conf.Provider == "sendgrid" {
		return NewSendGrid(conf.SendgridAPIKey, conf.FromName, conf.FromEmail)
	}

	return NewConsole(zap.L())
}
