package async

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/brfinance/extrato/internal/domain"
)

// Notifier pushes status transitions to interested consumers. Notification
// is best effort; job state in the status store stays authoritative.
type Notifier interface {
	NotifyStatus(ctx context.Context, status *domain.ProcessingStatus)
}

type AMQPNotifier struct {
	log       *slog.Logger
	publisher Publisher
}

func NewAMQPNotifier(log *slog.Logger, publisher Publisher) *AMQPNotifier {
	return &AMQPNotifier{log: log, publisher: publisher}
}

func (n *AMQPNotifier) NotifyStatus(ctx context.Context, status *domain.ProcessingStatus) {
	body, err := json.Marshal(status)
	if err != nil {
		n.log.ErrorContext(ctx, "failed to marshal status update",
			slog.String("job_id", status.JobID),
			slog.String("err", err.Error()),
		)
		return
	}

	if err := n.publisher.Publish(ctx, RoutingKeyStatus, body); err != nil {
		n.log.DebugContext(ctx, "failed to publish status update",
			slog.String("job_id", status.JobID),
			slog.String("err", err.Error()),
		)
	}
}
