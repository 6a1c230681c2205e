package outbox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/domain"
)

// envelope is the wire format shared by the API and the mailer process.
type envelope struct {
	Key       string                 `json:"key"`
	Kind      domain.MailKind        `json:"kind"`
	Recipient string                 `json:"recipient"`
	Subject   string                 `json:"subject"`
	Payload   map[string]interface{} `json:"payload"`
}

func encode(msg domain.OutboxMessage) ([]byte, error) {
	return json.Marshal(envelope{
		Key:       msg.Key,
		Kind:      msg.Kind,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Payload:   msg.Payload,
	})
}

func decode(b []byte) (domain.OutboxMessage, error) {
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return domain.OutboxMessage{}, err
	}
	if e.Key == "" || e.Recipient == "" {
		return domain.OutboxMessage{}, errors.New("envelope is missing key or recipient")
	}

	return domain.OutboxMessage{
		Key:       e.Key,
		Kind:      e.Kind,
		Recipient: e.Recipient,
		Subject:   e.Subject,
		Payload:   e.Payload,
	}, nil
}

// KafkaTransport publishes messages for the mailer process.
type KafkaTransport struct {
	writer *kafka.Writer
}

func NewKafkaTransport(conf *config.KafkaConfig) *KafkaTransport {
	w := &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	if conf.Username != "" {
		w.Transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: conf.Username, Password: conf.Password},
			TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return &KafkaTransport{writer: w}
}

func (t *KafkaTransport) Deliver(ctx context.Context, msg domain.OutboxMessage) error {
	value, err := encode(msg)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%w: encode: %v", ErrUndeliverable, err))
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err = t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("t.writer.WriteMessages -> %w", err)
	}

	return nil
}

func (t *KafkaTransport) Close() error {
	return t.writer.Close()
}

// Consumer reads published messages and delivers them through a Transport.
type Consumer struct {
	reader    *kafka.Reader
	transport Transport
}

func NewConsumer(conf *config.KafkaConfig, transport Transport) *Consumer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if conf.Username != "" {
		dialer.SASLMechanism = plain.Mechanism{Username: conf.Username, Password: conf.Password}
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  conf.Brokers,
			GroupID:  conf.GroupID,
			Topic:    conf.Topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			Dialer:   dialer,
		}),
		transport: transport,
	}
}

// Listen blocks until ctx is cancelled. Offsets are committed only after a
// message was handled, so a crash redelivers it.
func (c *Consumer) Listen(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			zap.L().Error("kafka fetch failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		c.handle(ctx, m)

		if err = c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			zap.L().Error("kafka commit failed", zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	msg, err := decode(m.Value)
	if err != nil {
		zap.L().Warn("dropping malformed mail message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err = backoff.Retry(func() error { return c.transport.Deliver(ctx, msg) }, b); err != nil {
		zap.L().Error("mail delivery failed", zap.String("key", msg.Key), zap.String("kind", string(msg.Kind)), zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
