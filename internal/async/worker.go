package async

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type FileProcessor interface {
	ProcessFile(ctx context.Context, bank, filename string, content []byte) (*domain.ProcessingResult, error)
}

// Worker consumes processing jobs one at a time. A job is acknowledged
// after its terminal status is recorded; failed jobs are never requeued,
// the outcome lives in the status store.
type Worker struct {
	log       *slog.Logger
	processor FileProcessor
	statuses  StatusStore
	notifier  Notifier
}

func NewWorker(log *slog.Logger, processor FileProcessor, statuses StatusStore, notifier Notifier) *Worker {
	return &Worker{
		log:       log,
		processor: processor,
		statuses:  statuses,
		notifier:  notifier,
	}
}

func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.log.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				w.log.InfoContext(ctx, "delivery channel closed, worker stopped")
				return nil
			}

			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job domain.ProcessingJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.log.ErrorContext(ctx, "discarding malformed job message", slog.String("err", err.Error()))

		// requeue=false dead-letters the message
		if err := d.Nack(false, false); err != nil {
			w.log.ErrorContext(ctx, "failed to nack message", slog.String("err", err.Error()))
		}
		return
	}

	w.processJob(ctx, &job)

	if err := d.Ack(false); err != nil {
		w.log.ErrorContext(ctx, "failed to ack message",
			slog.String("job_id", job.JobID),
			slog.String("err", err.Error()),
		)
	}
}

func (w *Worker) processJob(ctx context.Context, job *domain.ProcessingJob) {
	started := time.Now()

	if !w.claim(ctx, job, started) {
		w.log.InfoContext(ctx, "skipping canceled job", slog.String("job_id", job.JobID))
		return
	}

	w.checkpoint(ctx, job.JobID, 10, "starting processing")
	w.checkpoint(ctx, job.JobID, 30, "processing file")

	result, err := w.processor.ProcessFile(ctx, job.Bank, job.Filename, job.Content)

	w.checkpoint(ctx, job.JobID, 90, "finishing")

	elapsed := time.Since(started)
	if err != nil {
		w.fail(ctx, job, err, elapsed)
		return
	}

	w.complete(ctx, job, result, elapsed)
}

// claim moves the job to PROCESSING, reporting false when the job was
// canceled or already finished. A status evicted from the cache is reseeded
// so progress stays observable.
func (w *Worker) claim(ctx context.Context, job *domain.ProcessingJob, started time.Time) bool {
	claimed := true

	err := w.statuses.Update(job.JobID, func(s *domain.ProcessingStatus) error {
		if !s.Status.CanTransitionTo(domain.StatusProcessing) {
			claimed = false
			return nil
		}

		s.Status = domain.StatusProcessing
		s.StartedAt = &started
		s.Message = "processing started"

		return nil
	})
	if errors.Is(err, domain.ErrJobNotFound) {
		w.statuses.Save(&domain.ProcessingStatus{
			JobID:     job.JobID,
			Bank:      job.Bank,
			Filename:  job.Filename,
			Status:    domain.StatusProcessing,
			StartedAt: &started,
			Message:   "processing started",
		})
	} else if err != nil {
		w.log.ErrorContext(ctx, "failed to claim job",
			slog.String("job_id", job.JobID),
			slog.String("err", err.Error()),
		)
	}

	return claimed
}

// checkpoint advances progress, never backwards.
func (w *Worker) checkpoint(ctx context.Context, jobID string, progress int, message string) {
	err := w.statuses.Update(jobID, func(s *domain.ProcessingStatus) error {
		if progress > s.Progress {
			s.Progress = progress
		}
		s.Message = message

		return nil
	})
	if err != nil {
		w.log.DebugContext(ctx, "failed to record checkpoint",
			slog.String("job_id", jobID),
			slog.String("err", err.Error()),
		)
		return
	}

	w.notify(ctx, jobID)
}

func (w *Worker) complete(ctx context.Context, job *domain.ProcessingJob, result *domain.ProcessingResult, elapsed time.Duration) {
	now := time.Now()

	err := w.statuses.Update(job.JobID, func(s *domain.ProcessingStatus) error {
		s.Status = domain.StatusCompleted
		s.Progress = 100
		s.Message = result.Message
		s.Processed = result.Processed
		s.Saved = result.SavedCount
		s.DuplicatesSkipped = result.Duplicates
		s.UploadID = result.UploadID
		s.FinishedAt = &now
		s.ElapsedMS = elapsed.Milliseconds()
		if s.ElapsedMS > 0 {
			s.Throughput = float64(result.SavedCount) * 1000 / float64(s.ElapsedMS)
		}

		return nil
	})
	if err != nil {
		w.log.ErrorContext(ctx, "failed to record job completion",
			slog.String("job_id", job.JobID),
			slog.String("err", err.Error()),
		)
		return
	}

	w.log.InfoContext(ctx, "job completed",
		slog.String("job_id", job.JobID),
		slog.String("filename", job.Filename),
		slog.Int("saved", result.SavedCount),
		slog.Int("duplicates", result.Duplicates),
		slog.Int64("elapsed_ms", elapsed.Milliseconds()),
	)

	w.notify(ctx, job.JobID)
}

func (w *Worker) fail(ctx context.Context, job *domain.ProcessingJob, procErr error, elapsed time.Duration) {
	now := time.Now()

	err := w.statuses.Update(job.JobID, func(s *domain.ProcessingStatus) error {
		s.Status = domain.StatusError
		s.Message = "processing failed"
		s.Error = procErr.Error()
		s.FinishedAt = &now
		s.ElapsedMS = elapsed.Milliseconds()

		return nil
	})
	if err != nil {
		w.log.ErrorContext(ctx, "failed to record job failure",
			slog.String("job_id", job.JobID),
			slog.String("err", err.Error()),
		)
		return
	}

	w.log.ErrorContext(ctx, "job failed",
		slog.String("job_id", job.JobID),
		slog.String("filename", job.Filename),
		slog.String("err", procErr.Error()),
	)

	w.notify(ctx, job.JobID)
}

func (w *Worker) notify(ctx context.Context, jobID string) {
	if status, ok := w.statuses.Get(jobID); ok {
		w.notifier.NotifyStatus(ctx, status)
	}
}
