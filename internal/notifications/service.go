package notifications

import (
	"context"
	"fmt"

	"seatwise/internal/reservations"
	"seatwise/internal/shared/config"
	"seatwise/pkg/logger"
)

// Service is the notification pipeline facade: it owns the Kafka
// producer and the consumer worker pool, and implements the
// reservations.TicketNotifier collaborator. Dispatch success means the
// broker acknowledged the job, not that the email landed.
type Service struct {
	producer TicketProducer
	consumer TicketConsumer
	workers  int
	log      *logger.Logger
}

var _ reservations.TicketNotifier = (*Service)(nil)

func NewService(cfg *config.Config) (*Service, error) {
	producer, err := NewKafkaTicketProducer(
		DefaultProducerConfig(cfg.Kafka.Brokers, cfg.Kafka.TicketTopic))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket producer: %w", err)
	}

	emailService, err := NewSMTPEmailService(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create email service: %w", err)
	}

	consumer, err := NewKafkaTicketConsumer(
		DefaultConsumerConfig(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroupID, cfg.Kafka.TicketTopic),
		emailService)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket consumer: %w", err)
	}

	return &Service{
		producer: producer,
		consumer: consumer,
		workers:  cfg.Kafka.NumWorkers,
		log:      logger.GetDefault().WithFields(map[string]interface{}{"component": "notifications"}),
	}, nil
}

// Start launches the consumer worker pool.
func (s *Service) Start(ctx context.Context) error {
	return s.consumer.Start(ctx, s.workers)
}

// Stop shuts down the pipeline, consumer first so in-flight jobs drain.
func (s *Service) Stop() error {
	var firstErr error
	if err := s.consumer.Stop(); err != nil {
		firstErr = err
	}
	if err := s.producer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// SendTicketEmail queues the ticket job for asynchronous delivery.
func (s *Service) SendTicketEmail(ctx context.Context, job reservations.TicketEmailJob) error {
	return s.producer.PublishTicketEmail(ctx, job)
}
