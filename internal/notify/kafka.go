package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for the email topic. Messages with the same key
// land on the same partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// KafkaNotifier publishes rendered confirmation emails for the mailer service.
type KafkaNotifier struct {
	writer   MessageWriter
	renderer *Renderer
	logger   zerolog.Logger
}

// NewKafkaNotifier creates a notifier publishing through writer.
func NewKafkaNotifier(writer MessageWriter, renderer *Renderer, logger zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		writer:   writer,
		renderer: renderer,
		logger:   logger.With().Str("notifier", "kafka").Logger(),
	}
}

// SendConfirmation publishes the order's confirmation email keyed by order number.
func (n *KafkaNotifier) SendConfirmation(ctx context.Context, order *model.Order) error {
	email, err := n.renderer.Render(order)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_confirmation")},
		},
		Time: time.Now().UTC(),
	}

	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to publish confirmation email")
		return fmt.Errorf("failed to publish confirmation email: %w", err)
	}

	n.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("to", order.Email).
		Msg("confirmation email published")
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier writes confirmation emails to the log instead of delivering them.
type LogNotifier struct {
	renderer *Renderer
	logger   zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(renderer *Renderer, logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		renderer: renderer,
		logger:   logger.With().Str("notifier", "log").Logger(),
	}
}

// SendConfirmation logs the rendered email.
func (n *LogNotifier) SendConfirmation(ctx context.Context, order *model.Order) error {
	email, err := n.renderer.Render(order)
	if err != nil {
		return err
	}

	n.logger.Info().
		Str("order_number", email.OrderNumber).
		Str("from", email.From).
		Str("to", email.To).
		Str("subject", email.Subject).
		Str("body", email.Body).
		Msg("confirmation email")
	return nil
}
