// Package audit ships rendered evidence to the audit trail and signs it.
package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer used by KafkaProducer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer is a Kafka-backed EvidencePublisher.
type KafkaProducer struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

// NewKafkaProducer creates a new KafkaProducer.
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) (service.EvidencePublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.ErrConfiguration("kafka.brokers and kafka.topic are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}
	return newKafkaProducer(writer, cfg.Topic, log), nil
}

func newKafkaProducer(writer messageWriter, topic string, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: writer,
		topic:  topic,
		logger: log.WithComponent("KafkaProducer"),
	}
}

// Publish sends an evidence event keyed by assessment id, so events of one
// assessment land on one partition.
func (p *KafkaProducer) Publish(ctx context.Context, event *models.EvidenceEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal evidence event", err)
		return errors.WrapError(err, constants.ErrCodeInternal, "failed to marshal evidence event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Assessment.ID.String()),
		Value: bytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "verdict", Value: []byte(event.Assessment.Verdict.Verdict)},
		},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write message to Kafka", err, logger.Fields{"topic": p.topic})
		return errors.WrapError(err, constants.ErrCodeUnavailable, "failed to publish evidence event")
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// LogPublisher writes evidence events to the structured log. It is used when
// Kafka is disabled.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log.WithComponent("EvidenceLog")}
}

// Publish implements service.EvidencePublisher.
func (p *LogPublisher) Publish(ctx context.Context, event *models.EvidenceEvent) error {
	p.logger.Info(ctx, "evidence rendered", logger.Fields{
		"event_type":    string(event.EventType),
		"assessment_id": event.Assessment.ID.String(),
		"asset":         event.Assessment.AssetName,
		"control":       event.Assessment.ControlID,
		"verdict":       string(event.Assessment.Verdict.Verdict),
		"signed":        event.Signature != "",
	})
	return nil
}

// Close implements service.EvidencePublisher.
func (p *LogPublisher) Close() error { return nil }

// NewEvidencePublisher returns the Kafka producer when enabled, the log publisher otherwise.
func NewEvidencePublisher(cfg config.KafkaConfig, log logger.Logger) (service.EvidencePublisher, error) {
	if !cfg.Enabled {
		return NewLogPublisher(log), nil
	}
	return NewKafkaProducer(cfg, log)
}

//Personal.AI order the ending
