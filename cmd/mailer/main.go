// Command mailer consumes the mail topic written by the API when
// kafka.enabled is set and delivers each message through the configured
// mail provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/logger"
	"github.com/thenamerahulkr/cems/internal/mailer"
	"github.com/thenamerahulkr/cems/internal/outbox"
)

var errKafkaDisabled = errors.New("kafka.enabled is false; the API delivers mail itself")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer zap.L().Sync() //nolint:errcheck

	if !conf.Kafka.Enabled {
		return errKafkaDisabled
	}

	renderer, err := mailer.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load mail templates -> %w", err)
	}

	consumer := outbox.NewConsumer(conf.Kafka, outbox.NewMailTransport(renderer, mailer.New(conf.Mail)))
	defer func() {
		if err := consumer.Close(); err != nil {
			zap.L().Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("mailer listening",
		zap.Strings("brokers", conf.Kafka.Brokers),
		zap.String("topic", conf.Kafka.Topic),
		zap.String("group_id", conf.Kafka.GroupID))

	return consumer.Listen(ctx)
}
