package event

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher 基于 kafka-go 的事件投递
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(msg.Type)}},
		Time:    time.Now(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
