package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"seatwise/internal/reservations"
	"seatwise/pkg/logger"

	"github.com/IBM/sarama"
)

// TicketProducer publishes ticket-email jobs to Kafka. The publish ack
// is the dispatch boundary: once the broker accepts the message the
// reservation side considers the email sent.
type TicketProducer interface {
	PublishTicketEmail(ctx context.Context, job reservations.TicketEmailJob) error
	Close() error
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	Timeout      time.Duration
	RequiredAcks sarama.RequiredAcks
}

func DefaultProducerConfig(brokers []string, topic string) *ProducerConfig {
	return &ProducerConfig{
		Brokers:      brokers,
		Topic:        topic,
		RetryMax:     3,
		Timeout:      10 * time.Second,
		RequiredAcks: sarama.WaitForAll,
	}
}

type kafkaTicketProducer struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
	log      *logger.Logger
}

func NewKafkaTicketProducer(config *ProducerConfig) (TicketProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	// Hash partitioning on recipient keeps one user's tickets ordered.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &kafkaTicketProducer{
		producer: producer,
		config:   config,
		log:      logger.GetDefault().WithFields(map[string]interface{}{"component": "ticket-producer"}),
	}, nil
}

func (p *kafkaTicketProducer) PublishTicketEmail(ctx context.Context, job reservations.TicketEmailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket job: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(job.To),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish ticket job: %w", err)
	}

	p.log.Info("Ticket Email Queued",
		"reservation_id", job.ReservationID,
		"recipient", job.To,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *kafkaTicketProducer) Close() error {
	return p.producer.Close()
}
