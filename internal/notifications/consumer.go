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

// TicketConsumer runs the worker pool draining the ticket-email topic.
type TicketConsumer interface {
	Start(ctx context.Context, numWorkers int) error
	Stop() error
}

type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MaxRetries   int
	RetryBackoff time.Duration
}

func DefaultConsumerConfig(brokers []string, groupID, topic string) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:      brokers,
		GroupID:      groupID,
		Topic:        topic,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

type kafkaTicketConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	emailService  EmailService
	log           *logger.Logger
	cancel        context.CancelFunc
}

func NewKafkaTicketConsumer(config *ConsumerConfig, emailService EmailService) (TicketConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &kafkaTicketConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		emailService:  emailService,
		log:           logger.GetDefault().WithFields(map[string]interface{}{"component": "ticket-consumer"}),
	}, nil
}

func (c *kafkaTicketConsumer) Start(ctx context.Context, numWorkers int) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go c.handleErrors()

	for i := 0; i < numWorkers; i++ {
		go c.runWorker(ctx, i)
	}

	c.log.Info("Ticket email workers started",
		"workers", numWorkers,
		"topic", c.config.Topic,
	)
	return nil
}

func (c *kafkaTicketConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &ticketClaimHandler{consumer: c, workerID: workerID}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.consumerGroup.Consume(ctx, []string{c.config.Topic}, handler); err != nil {
				c.log.WithError(err).Warn("consume loop error", "worker", workerID)
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *kafkaTicketConsumer) handleErrors() {
	for err := range c.consumerGroup.Errors() {
		c.log.WithError(err).Warn("consumer group error")
	}
}

func (c *kafkaTicketConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type ticketClaimHandler struct {
	consumer *kafkaTicketConsumer
	workerID int
}

func (h *ticketClaimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *ticketClaimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *ticketClaimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.consumer.log.WithError(err).Warn("ticket email delivery failed",
					"worker", h.workerID,
					"offset", message.Offset,
				)
			}
			// Mark regardless: delivery failures are terminal after
			// retries, the job is not redelivered forever.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *ticketClaimHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var job reservations.TicketEmailJob
	if err := json.Unmarshal(message.Value, &job); err != nil {
		return fmt.Errorf("failed to unmarshal ticket job: %w", err)
	}

	return h.sendWithRetry(ctx, job)
}

func (h *ticketClaimHandler) sendWithRetry(ctx context.Context, job reservations.TicketEmailJob) error {
	maxRetries := h.consumer.config.MaxRetries
	backoff := h.consumer.config.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = h.consumer.emailService.SendTicket(ctx, job)
		if lastErr == nil {
			h.consumer.log.Info("Ticket Email Delivered",
				"worker", h.workerID,
				"reservation_id", job.ReservationID,
				"recipient", job.To,
			)
			return nil
		}

		if attempt == maxRetries {
			break
		}

		// Exponential backoff
		delay := backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
