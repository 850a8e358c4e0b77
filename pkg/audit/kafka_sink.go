package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaSinkConfig configures the Kafka forwarding sink.
type KafkaSinkConfig struct {
	Brokers []string
	Topic   string

	// BatchTimeout is the maximum time to wait before flushing a batch.
	BatchTimeout time.Duration

	// WriteTimeout bounds a single WriteMessages call.
	WriteTimeout time.Duration
}

// KafkaSink forwards audit events to a Kafka topic, keyed by actor so that
// one user's events stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
	topic  string
	log    *zap.SugaredLogger
}

func NewKafkaSink(cfg KafkaSinkConfig, log *zap.SugaredLogger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink requires a topic")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	log.Infow("Kafka audit sink initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"batchTimeout", batchTimeout)

	return &KafkaSink{
		writer: writer,
		topic:  cfg.Topic,
		log:    log.Named("audit-kafka-sink"),
	}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Actor),
		Value: payload,
		Time:  event.Timestamp,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing audit event %s to topic %s: %w", event.ID, s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
