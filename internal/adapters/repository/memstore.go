package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/bracketpool/internal/domain/standings"
	"github.com/okian/bracketpool/pkg/metrics"
)

const defaultMaxRuns = 100

// MemoryStore is a bounded in-memory Store. Listings are served from an
// immutable snapshot republished on every Save, so readers never take the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Run
	order   []string // oldest first
	maxRuns int

	snapshot atomic.Pointer[[]Summary] // newest first
}

// NewMemoryStore constructs a run store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:    make(map[string]*Run),
		maxRuns: defaultMaxRuns,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&[]Summary{})
	metrics.UpdateStoredRuns(0)
	return s
}

// Save implements Store.Save.
func (s *MemoryStore) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byID[run.ID]; dup {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrDuplicateID, run.ID)
	}
	s.byID[run.ID] = &run
	s.order = append(s.order, run.ID)
	for len(s.order) > s.maxRuns {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	s.publishSnapshotLocked()
	metrics.UpdateStoredRuns(len(s.order))
	return nil
}

// publishSnapshotLocked rebuilds the listing; the write lock must be held.
func (s *MemoryStore) publishSnapshotLocked() {
	list := make([]Summary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		list = append(list, summarize(s.byID[s.order[i]]))
	}
	s.snapshot.Store(&list)
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	list := *s.snapshot.Load()
	if limit > len(list) {
		limit = len(list)
	}
	return append([]Summary(nil), list[:limit]...), nil
}

// Standings implements Store.Standings.
func (s *MemoryStore) Standings(ctx context.Context, id string, limit int) ([]standings.Entry, error) {
	if limit < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ranked := Standings(r.Stats)
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
