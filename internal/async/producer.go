package async

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	"github.com/brfinance/extrato/internal/service"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// AMQPPublisher publishes persistent JSON messages to the processing
// exchange.
type AMQPPublisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(ch *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, exchange: ExchangeProcessing}
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Producer accepts statement files for asynchronous processing and exposes
// job status to clients.
type Producer struct {
	log       *slog.Logger
	publisher Publisher
	statuses  StatusStore
}

func NewProducer(log *slog.Logger, publisher Publisher, statuses StatusStore) *Producer {
	return &Producer{
		log:       log,
		publisher: publisher,
		statuses:  statuses,
	}
}

// Submit enqueues a file and returns the job's initial status. The file is
// accepted as-is; all processing, including validation against the bank's
// format, happens on the consumer side.
func (p *Producer) Submit(
	ctx context.Context,
	bank, filename string,
	content []byte,
	priority int,
) (*domain.ProcessingStatus, error) {
	switch {
	case bank == "":
		return nil, fmt.Errorf("%w: bank is required", domain.ErrInvalidSubmission)
	case filename == "":
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidSubmission)
	case len(content) == 0:
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidSubmission)
	}

	job := &domain.ProcessingJob{
		JobID:       uuid.NewString(),
		Bank:        bank,
		Filename:    filename,
		Content:     content,
		ContentHash: service.ContentHash(content),
		SubmittedAt: time.Now(),
		Priority:    priority,
		Status:      domain.StatusPending,
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := p.publisher.Publish(ctx, RoutingKeyProcess, body); err != nil {
		return nil, fmt.Errorf("failed to publish job: %w", err)
	}

	status := &domain.ProcessingStatus{
		JobID:    job.JobID,
		Bank:     bank,
		Filename: filename,
		Status:   domain.StatusPending,
		Progress: 0,
		Message:  "queued for processing",
	}
	p.statuses.Save(status)

	p.log.InfoContext(ctx, "job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("bank", bank),
		slog.String("filename", filename),
	)

	return status, nil
}

// Cancel marks a pending job as canceled. Jobs that already started, or
// already finished, stay as they are.
func (p *Producer) Cancel(jobID string) error {
	return p.statuses.Update(jobID, func(s *domain.ProcessingStatus) error {
		if s.Status != domain.StatusPending {
			return fmt.Errorf("%w: job %s is %s", domain.ErrJobNotCancelable, jobID, s.Status)
		}

		now := time.Now()
		s.Status = domain.StatusCanceled
		s.Message = "processing canceled"
		s.FinishedAt = &now

		return nil
	})
}

func (p *Producer) Status(jobID string) (*domain.ProcessingStatus, error) {
	status, ok := p.statuses.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}

	return status, nil
}

func (p *Producer) Statuses() []*domain.ProcessingStatus {
	return p.statuses.List()
}
