package async_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/brfinance/extrato/internal/async"
	"github.com/brfinance/extrato/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	result *domain.ProcessingResult
	err    error

	calls []string
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, bank, filename string, content []byte) (*domain.ProcessingResult, error) {
	f.calls = append(f.calls, filename)
	return f.result, f.err
}

type fakeNotifier struct {
	statuses []*domain.ProcessingStatus
}

func (f *fakeNotifier) NotifyStatus(ctx context.Context, status *domain.ProcessingStatus) {
	f.statuses = append(f.statuses, status)
}

func deliveryFor(t *testing.T, job *domain.ProcessingJob) amqp.Delivery {
	t.Helper()

	body, err := json.Marshal(job)
	require.NoError(t, err)

	return amqp.Delivery{Body: body}
}

// runWorker feeds the deliveries to the worker and returns once the channel
// drains.
func runWorker(t *testing.T, w *async.Worker, deliveries ...amqp.Delivery) {
	t.Helper()

	ch := make(chan amqp.Delivery, len(deliveries))
	for _, d := range deliveries {
		ch <- d
	}
	close(ch)

	require.NoError(t, w.Run(context.Background(), ch))
}

func TestWorker_CompletesJob(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{result: &domain.ProcessingResult{
		Filename:   "extrato.csv",
		Success:    true,
		Message:    "file processed successfully",
		SavedCount: 8,
		Processed:  10,
		Duplicates: 2,
		UploadID:   42,
	}}

	job := &domain.ProcessingJob{JobID: "job-1", Bank: "banco-do-brasil", Filename: "extrato.csv", Content: []byte("data")}
	statuses.Save(&domain.ProcessingStatus{JobID: "job-1", Status: domain.StatusPending})

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, deliveryFor(t, job))

	status, ok := statuses.Get("job-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusCompleted, status.Status)
	require.Equal(t, 100, status.Progress)
	require.Equal(t, 10, status.Processed)
	require.Equal(t, 8, status.Saved)
	require.Equal(t, 2, status.DuplicatesSkipped)
	require.Equal(t, int64(42), status.UploadID)
	require.NotNil(t, status.StartedAt)
	require.NotNil(t, status.FinishedAt)

	require.Equal(t, []string{"extrato.csv"}, processor.calls)
	require.NotEmpty(t, notifier.statuses)
	require.Equal(t, domain.StatusCompleted, notifier.statuses[len(notifier.statuses)-1].Status)
}

func TestWorker_ProgressNeverDecreases(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{result: domain.Succeeded("extrato.csv", 1, 1, 0, 1)}

	job := &domain.ProcessingJob{JobID: "job-1", Bank: "banco-do-brasil", Filename: "extrato.csv"}
	statuses.Save(&domain.ProcessingStatus{JobID: "job-1", Status: domain.StatusPending})

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, deliveryFor(t, job))

	previous := -1
	for _, s := range notifier.statuses {
		require.GreaterOrEqual(t, s.Progress, previous)
		previous = s.Progress
	}
	require.Equal(t, 100, previous)
}

func TestWorker_FailsJob(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{err: errors.New("bank not supported")}

	job := &domain.ProcessingJob{JobID: "job-1", Bank: "nubank", Filename: "extrato.csv"}
	statuses.Save(&domain.ProcessingStatus{JobID: "job-1", Status: domain.StatusPending})

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, deliveryFor(t, job))

	status, ok := statuses.Get("job-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusError, status.Status)
	require.Equal(t, "bank not supported", status.Error)
	require.NotNil(t, status.FinishedAt)
}

func TestWorker_SkipsCanceledJob(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{result: domain.Succeeded("extrato.csv", 1, 1, 0, 1)}

	job := &domain.ProcessingJob{JobID: "job-1", Bank: "banco-do-brasil", Filename: "extrato.csv"}
	statuses.Save(&domain.ProcessingStatus{JobID: "job-1", Status: domain.StatusCanceled})

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, deliveryFor(t, job))

	require.Empty(t, processor.calls)

	status, ok := statuses.Get("job-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusCanceled, status.Status)
}

func TestWorker_ReseedsEvictedStatus(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{result: domain.Succeeded("extrato.csv", 3, 3, 0, 7)}

	// no prior status: it aged out of the cache before the job was consumed
	job := &domain.ProcessingJob{JobID: "job-1", Bank: "banco-do-brasil", Filename: "extrato.csv"}

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, deliveryFor(t, job))

	status, ok := statuses.Get("job-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusCompleted, status.Status)
	require.Equal(t, 3, status.Saved)
}

func TestWorker_DiscardsMalformedMessage(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	notifier := &fakeNotifier{}
	processor := &fakeProcessor{}

	w := async.NewWorker(log, processor, statuses, notifier)
	runWorker(t, w, amqp.Delivery{Body: []byte("not json")})

	require.Empty(t, processor.calls)
	require.Empty(t, statuses.List())
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	statuses := async.NewCacheStatusStore(10, time.Minute)
	w := async.NewWorker(log, &fakeProcessor{}, statuses, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx, make(chan amqp.Delivery))
	require.ErrorIs(t, err, context.Canceled)
}
