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
	"github.com/brfinance/extrato/internal/service"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	routingKeys []string
	bodies      [][]byte
	err         error
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if f.err != nil {
		return f.err
	}

	f.routingKeys = append(f.routingKeys, routingKey)
	f.bodies = append(f.bodies, body)
	return nil
}

func newProducer(t *testing.T) (*async.Producer, *fakePublisher, async.StatusStore) {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	publisher := &fakePublisher{}
	statuses := async.NewCacheStatusStore(10, time.Minute)

	return async.NewProducer(log, publisher, statuses), publisher, statuses
}

func TestProducer_Submit(t *testing.T) {
	t.Parallel()

	producer, publisher, statuses := newProducer(t)

	content := []byte("01/01/2024,Pix,,1,\"10,00\",Entrada")

	initial, err := producer.Submit(context.Background(), "banco-do-brasil", "extrato.csv", content, 1)
	require.NoError(t, err)
	require.NotEmpty(t, initial.JobID)
	require.Equal(t, domain.StatusPending, initial.Status)
	require.Equal(t, 0, initial.Progress)

	require.Equal(t, []string{async.RoutingKeyProcess}, publisher.routingKeys)

	var published domain.ProcessingJob
	require.NoError(t, json.Unmarshal(publisher.bodies[0], &published))
	require.Equal(t, initial.JobID, published.JobID)
	require.Equal(t, content, published.Content)
	require.Equal(t, service.ContentHash(content), published.ContentHash)

	status, ok := statuses.Get(initial.JobID)
	require.True(t, ok)
	require.Equal(t, domain.StatusPending, status.Status)
}

func TestProducer_Submit_Invalid(t *testing.T) {
	t.Parallel()

	producer, publisher, _ := newProducer(t)

	_, err := producer.Submit(context.Background(), "", "extrato.csv", []byte("x"), 0)
	require.ErrorIs(t, err, domain.ErrInvalidSubmission)

	_, err = producer.Submit(context.Background(), "itau", "", []byte("x"), 0)
	require.ErrorIs(t, err, domain.ErrInvalidSubmission)

	_, err = producer.Submit(context.Background(), "itau", "extrato.pdf", nil, 0)
	require.ErrorIs(t, err, domain.ErrInvalidSubmission)

	require.Empty(t, publisher.routingKeys)
}

func TestProducer_Submit_PublishFailure(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	publisher := &fakePublisher{err: errors.New("broker down")}
	statuses := async.NewCacheStatusStore(10, time.Minute)
	producer := async.NewProducer(log, publisher, statuses)

	_, err := producer.Submit(context.Background(), "itau", "extrato.pdf", []byte("x"), 0)
	require.Error(t, err)
	require.Empty(t, statuses.List())
}

func TestProducer_Cancel(t *testing.T) {
	t.Parallel()

	producer, _, _ := newProducer(t)

	initial, err := producer.Submit(context.Background(), "itau", "extrato.pdf", []byte("x"), 0)
	require.NoError(t, err)

	require.NoError(t, producer.Cancel(initial.JobID))

	status, err := producer.Status(initial.JobID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, status.Status)
	require.NotNil(t, status.FinishedAt)

	require.ErrorIs(t, producer.Cancel(initial.JobID), domain.ErrJobNotCancelable)
}

func TestProducer_Cancel_NotCancelable(t *testing.T) {
	t.Parallel()

	producer, _, statuses := newProducer(t)

	initial, err := producer.Submit(context.Background(), "itau", "extrato.pdf", []byte("x"), 0)
	require.NoError(t, err)

	require.NoError(t, statuses.Update(initial.JobID, func(s *domain.ProcessingStatus) error {
		s.Status = domain.StatusProcessing
		return nil
	}))

	require.ErrorIs(t, producer.Cancel(initial.JobID), domain.ErrJobNotCancelable)

	status, err := producer.Status(initial.JobID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusProcessing, status.Status)
}

func TestProducer_Cancel_NotFound(t *testing.T) {
	t.Parallel()

	producer, _, _ := newProducer(t)

	require.ErrorIs(t, producer.Cancel("missing"), domain.ErrJobNotFound)
}

func TestProducer_Status_NotFound(t *testing.T) {
	t.Parallel()

	producer, _, _ := newProducer(t)

	_, err := producer.Status("missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
}
