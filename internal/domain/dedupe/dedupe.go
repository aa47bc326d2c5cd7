// Package dedupe remembers which simulation requests were already accepted so
// that a retried submission returns the original run instead of a new one.
package dedupe

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Deduper binds client supplied keys to run IDs.
type Deduper interface {
	// Claim atomically checks key and reserves it for the request identified
	// by fingerprint if unseen. It returns the run bound to key and true when
	// the key was already claimed; the run ID is empty while the first request
	// is still simulating. A claimed key presented with another fingerprint
	// fails with ErrKeyReused.
	Claim(ctx context.Context, key, fingerprint string) (runID string, seen bool, err error)

	// Bind attaches the finished run to a claimed key.
	Bind(ctx context.Context, key, runID string)

	// Release forgets key so the request can be retried, e.g. after the
	// simulation failed or the run was evicted.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key         string
	fingerprint string
	runID       string
}

// inMemoryDeduper keeps keys in claim order and evicts the oldest when full.
// maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is the oldest claim
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(ctx context.Context, key, fingerprint string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		e := el.Value.(*entry)
		if e.fingerprint != fingerprint {
			return "", true, fmt.Errorf("%w: %s", ErrKeyReused, key)
		}
		return e.runID, true, nil
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(&entry{key: key, fingerprint: fingerprint})
	d.size.Add(1)
	return "", false, nil
}

func (d *inMemoryDeduper) Bind(ctx context.Context, key, runID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		el.Value.(*entry).runID = runID
	}
}

func (d *inMemoryDeduper) Release(ctx context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*entry).key)
	d.size.Add(-1)
}

// Size returns the current number of keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
