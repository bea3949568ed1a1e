package domain

import "time"

// ProcessingJob is the queue message for one unit of asynchronous work.
// Content carries the raw file bytes so workers need no shared storage.
type ProcessingJob struct {
	JobID       string    `json:"job_id"`
	Bank        string    `json:"bank"`
	Filename    string    `json:"filename"`
	Content     []byte    `json:"content"`
	ContentHash string    `json:"content_hash"`
	SubmittedAt time.Time `json:"submitted_at"`
	Priority    int       `json:"priority"`
	Status      Status    `json:"status"`
}

// ProcessingStatus is the externally visible progress/outcome of a job.
// The notification schema mirrors this struct.
type ProcessingStatus struct {
	JobID             string     `json:"job_id"`
	Bank              string     `json:"bank"`
	Filename          string     `json:"filename"`
	Status            Status     `json:"status"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	Progress          int        `json:"progress"`
	Message           string     `json:"message"`
	Error             string     `json:"error,omitempty"`
	Processed         int        `json:"processed"`
	Saved             int        `json:"saved"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
	UploadID          int64      `json:"upload_id,omitempty"`
	ElapsedMS         int64      `json:"elapsed_ms"`
	Throughput        float64    `json:"throughput"`
}
