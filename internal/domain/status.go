package domain

// Status is the lifecycle state of an asynchronous processing job.
// COMPLETED, ERROR and CANCELED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusError      Status = "ERROR"
	StatusCanceled   Status = "CANCELED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCanceled
}

// CanTransitionTo reports whether the transition s -> next is legal.
// PENDING may be claimed (PROCESSING) or canceled; PROCESSING only ever
// finishes as COMPLETED or ERROR.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCanceled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}
