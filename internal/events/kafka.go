package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes trip events keyed by owner so one owner's trips
// stay on one partition.
type KafkaPublisher struct {
	writer kafkaWriter
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.WithFields(log.Fields{"broker": broker, "topic": topic}).Info("Kafka publisher configured")
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishTrip(ctx context.Context, event TripPlanned) error {
	payload, err := encode(event)
	if err != nil {
		return fmt.Errorf("encode trip event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Owner),
		Value: payload,
		Time:  event.PlannedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write trip event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
