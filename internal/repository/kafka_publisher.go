package repository

import (
	"context"

	"EarnPulse/internal/domain/models"
	"EarnPulse/internal/domain/repository"
	pkgkafka "EarnPulse/pkg/kafka"
)

// KafkaPublisher writes prediction events to a topic keyed by ticker.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Ticker), e)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []*models.PredictionEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Ticker), Value: e}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ repository.Publisher = (*KafkaPublisher)(nil)
