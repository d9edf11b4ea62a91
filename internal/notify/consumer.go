package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}

// readRetryDelay spaces out reads while the broker keeps failing.
const readRetryDelay = time.Second

var errRead = errors.New("error reading message")

// Consumer turns order-confirmed events into confirmation mails.
type Consumer struct {
	reader     MessageReader
	mailer     ConfirmationSender
	retryDelay time.Duration
}

func NewConsumer(mailer ConfirmationSender, topic, groupID string, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, mailer)
}

func NewConsumerWithReader(reader MessageReader, mailer ConfirmationSender) *Consumer {
	return &Consumer{reader: reader, mailer: mailer, retryDelay: readRetryDelay}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		log.Printf("confirmation consumer: %v", err)
		if errors.Is(err, errRead) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

// A message that cannot be decoded or mailed is logged and skipped; the
// mail is best effort and must not block the partition.
func (c *Consumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errRead, err)
	}

	var conf Confirmation
	if err := json.Unmarshal(m.Value, &conf); err != nil {
		return fmt.Errorf("error parsing message at offset %d: %w", m.Offset, err)
	}

	if err := c.mailer.SendConfirmation(ctx, conf); err != nil {
		return err
	}
	log.Printf("confirmation mail sent for order %s", conf.OrderID)
	return nil
}
