// Package kafka forwards readings to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes one message per reading, keyed by device id.
type Producer struct {
	topic  string
	writer messageWriter
}

// NewProducer builds a producer for cfg.Kafka. No connection is made until Send.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		topic: cfg.Topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Name implements sink.Sink.
func (p *Producer) Name() string { return "kafka" }

// Send implements sink.Sink.
func (p *Producer) Send(ctx context.Context, data *models.SensorData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal sensor data: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(data.DeviceID),
		Value: payload,
		Time:  data.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
