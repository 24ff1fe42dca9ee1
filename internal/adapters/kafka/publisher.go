package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-realtime/internal/game"
	"chat-realtime/pkg/logger"

	"github.com/IBM/sarama"
)

// ResultPublisher writes finished games to a Kafka topic, keyed by session id
type ResultPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewResultPublisher(producer sarama.SyncProducer, topic string, log *logger.Logger) *ResultPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &ResultPublisher{producer: producer, topic: topic, log: log.Named("kafka")}
}

func (p *ResultPublisher) Name() string { return "kafka" }

func (p *ResultPublisher) RecordResult(ctx context.Context, result game.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode game result: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(result.SessionID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("failed to publish game result: %w", err)
	}

	p.log.Debug("Published game result",
		"session_id", result.SessionID,
		"topic", p.topic,
		"partition", partition,
		"offset", offset)
	return nil
}

func (p *ResultPublisher) Close() error {
	return p.producer.Close()
}
