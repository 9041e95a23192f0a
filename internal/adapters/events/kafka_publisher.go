package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
)

// KafkaPublisher writes event envelopes keyed by partition key. One writer
// serves the domain, analytics and DLQ surfaces; topics are resolved per
// event type with the DLQ pinned to its own topic.
type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
	dlqTopic     string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string, dlqTopic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if dlqTopic == "" {
		dlqTopic = "dispute-tribunal.dlq"
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topicByEvent,
		dlqTopic:     dlqTopic,
	}, nil
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, partitionKey string, payload []byte) error {
	topic := eventType
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		topic = mapped
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) PublishDomain(ctx context.Context, event contracts.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publish(ctx, event.EventType, event.PartitionKey, payload)
}

func (p *KafkaPublisher) PublishAnalytics(ctx context.Context, event contracts.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.publish(ctx, event.EventType, event.PartitionKey, payload)
}

func (p *KafkaPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.dlqTopic,
		Key:   []byte(record.OriginalEvent.PartitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
