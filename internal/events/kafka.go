package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lgpd-site-api/internal/observability/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events asynchronously, keyed by record ID so all
// events for the same record land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	log    *logger.Logger
}

// NewKafkaPublisher builds an async writer for topic.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("events: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("events: topic is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		// a resposta HTTP nunca espera o broker
		Async: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn(context.Background(), "failed to deliver submission events",
					logger.Module("events"),
					logger.Action("publish"),
					zap.Int("count", len(messages)),
					zap.Error(err),
				)
			}
		},
	}

	return newKafkaPublisher(w, log), nil
}

func newKafkaPublisher(w messageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.EventName == "" {
		e.EventName = EventSubmissionRecorded
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.RecordID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_name", Value: []byte(e.EventName)},
			{Key: "kind", Value: []byte(e.Kind)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
