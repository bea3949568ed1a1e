package service

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Metrics accumulates processing counters for the lifetime of the process.
type Metrics struct {
	filesProcessed    atomic.Int64
	duplicateFiles    atomic.Int64
	transactionsSaved atomic.Int64
	duplicatesSkipped atomic.Int64

	mu      sync.Mutex
	perBank map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{perBank: make(map[string]int64)}
}

// RecordFile registers one successfully processed file.
func (m *Metrics) RecordFile(bank string, saved, duplicates int) {
	m.filesProcessed.Add(1)
	m.transactionsSaved.Add(int64(saved))
	m.duplicatesSkipped.Add(int64(duplicates))

	m.mu.Lock()
	m.perBank[bank]++
	m.mu.Unlock()
}

// RecordDuplicateFile registers a file rejected by content-hash dedup.
func (m *Metrics) RecordDuplicateFile() {
	m.duplicateFiles.Add(1)
}

type MetricsSnapshot struct {
	FilesProcessed    int64            `json:"files_processed"`
	DuplicateFiles    int64            `json:"duplicate_files"`
	TransactionsSaved int64            `json:"transactions_saved"`
	DuplicatesSkipped int64            `json:"duplicates_skipped"`
	FilesPerBank      map[string]int64 `json:"files_per_bank"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	perBank := maps.Clone(m.perBank)
	m.mu.Unlock()

	return MetricsSnapshot{
		FilesProcessed:    m.filesProcessed.Load(),
		DuplicateFiles:    m.duplicateFiles.Load(),
		TransactionsSaved: m.transactionsSaved.Load(),
		DuplicatesSkipped: m.duplicatesSkipped.Load(),
		FilesPerBank:      perBank,
	}
}
