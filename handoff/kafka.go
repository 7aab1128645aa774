package handoff

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventOrderPlaced = "OrderPlaced"

// Producer is the part of *kafka.Writer the publisher needs.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher puts the order text on a topic for a downstream notifier.
type KafkaPublisher struct {
	log      *zap.Logger
	producer Producer
	topic    string
}

// NewKafkaWriter builds a producer for brokers. The topic is set per message.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaPublisher(log *zap.Logger, producer Producer, topic string) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{log: log, producer: producer, topic: topic}
}

func (p *KafkaPublisher) Send(ctx context.Context, msg Message) error {
	m := kafka.Message{
		Topic: p.topic,
		Key:   []byte(msg.Reference),
		Value: []byte(msg.Text),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
			{Key: "uri", Value: []byte(msg.URI)},
		},
	}
	if err := p.producer.WriteMessages(ctx, m); err != nil {
		p.log.Error("order publish failed", zap.String("reference", msg.Reference), zap.Error(err))
		return fmt.Errorf("publish order %s: %w", msg.Reference, err)
	}
	p.log.Info("order published", zap.String("reference", msg.Reference), zap.String("topic", p.topic))
	return nil
}
