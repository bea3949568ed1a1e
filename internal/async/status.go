// Package async carries statement files through the message broker: the
// producer enqueues jobs, workers consume them, and an in-memory store
// tracks per-job status for polling clients.
package async

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brfinance/extrato/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// StatusStore holds the observable state of asynchronous jobs. Entries are
// evicted by capacity and age, so a missing job is a valid answer.
type StatusStore interface {
	Save(status *domain.ProcessingStatus)
	Get(jobID string) (*domain.ProcessingStatus, bool)
	Update(jobID string, fn func(*domain.ProcessingStatus) error) error
	List() []*domain.ProcessingStatus
}

// CacheStatusStore is a bounded TTL cache of job statuses. The cache is safe
// for single operations, but read-modify-write sequences need mu so that
// writes to the same job never interleave.
type CacheStatusStore struct {
	mu    sync.Mutex
	cache *lru.LRU[string, *domain.ProcessingStatus]
}

func NewCacheStatusStore(maxEntries int, ttl time.Duration) *CacheStatusStore {
	return &CacheStatusStore{
		cache: lru.NewLRU[string, *domain.ProcessingStatus](maxEntries, nil, ttl),
	}
}

func (s *CacheStatusStore) Save(status *domain.ProcessingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Add(status.JobID, cloneStatus(status))
}

func (s *CacheStatusStore) Get(jobID string) (*domain.ProcessingStatus, bool) {
	status, ok := s.cache.Get(jobID)
	if !ok {
		return nil, false
	}

	return cloneStatus(status), true
}

// Update applies fn to a copy of the stored status and writes it back only
// when fn succeeds. Callers never observe a half-applied update, and updates
// to the same job are applied one at a time.
func (s *CacheStatusStore) Update(jobID string, fn func(*domain.ProcessingStatus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.cache.Get(jobID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}

	updated := cloneStatus(status)
	if err := fn(updated); err != nil {
		return err
	}

	s.cache.Add(jobID, updated)

	return nil
}

// List returns all live statuses, most recently started first. Jobs that
// have not started yet sort last.
func (s *CacheStatusStore) List() []*domain.ProcessingStatus {
	values := s.cache.Values()

	statuses := make([]*domain.ProcessingStatus, 0, len(values))
	for _, status := range values {
		statuses = append(statuses, cloneStatus(status))
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i].StartedAt, statuses[j].StartedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return statuses
}

func cloneStatus(status *domain.ProcessingStatus) *domain.ProcessingStatus {
	clone := *status
	if status.StartedAt != nil {
		t := *status.StartedAt
		clone.StartedAt = &t
	}
	if status.FinishedAt != nil {
		t := *status.FinishedAt
		clone.FinishedAt = &t
	}

	return &clone
}
