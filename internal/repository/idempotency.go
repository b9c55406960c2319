// Package repository holds the process-local stores backing the HTTP layer.
package repository

import (
	"context"
	"sync"
	"time"
)

type IdempotencyCacheEntry struct {
	Key          string
	Subject      string
	RequestHash  string
	StatusCode   int
	ContentType  string
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type cacheKey struct {
	key     string
	subject string
}

// IdempotencyRepository keeps replayable responses in memory, keyed by
// idempotency key and caller. Entries vanish on restart.
type IdempotencyRepository struct {
	mu       sync.Mutex
	entries  map[cacheKey]*IdempotencyCacheEntry
	inFlight map[cacheKey]struct{}
	now      func() time.Time
}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{
		entries:  make(map[cacheKey]*IdempotencyCacheEntry),
		inFlight: make(map[cacheKey]struct{}),
		now:      time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (r *IdempotencyRepository) WithClock(now func() time.Time) *IdempotencyRepository {
	r.now = now
	return r
}

// Get returns the live entry for key and subject, or nil when none exists.
func (r *IdempotencyRepository) Get(_ context.Context, key, subject string) (*IdempotencyCacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.live(cacheKey{key, subject}), nil
}

// Reserve claims key for subject while its request runs. It returns the
// stored entry when the key already completed, or reserved=false when
// another request holds the claim. A successful claim ends with Set or
// Release.
func (r *IdempotencyRepository) Reserve(_ context.Context, key, subject string) (entry *IdempotencyCacheEntry, reserved bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cacheKey{key, subject}
	if e := r.live(k); e != nil {
		return e, false, nil
	}
	if _, busy := r.inFlight[k]; busy {
		return nil, false, nil
	}
	r.inFlight[k] = struct{}{}
	return nil, true, nil
}

// Release drops a claim without storing a response.
func (r *IdempotencyRepository) Release(_ context.Context, key, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, cacheKey{key, subject})
	return nil
}

// live returns a copy of the unexpired entry for k. Callers hold r.mu.
func (r *IdempotencyRepository) live(k cacheKey) *IdempotencyCacheEntry {
	e, ok := r.entries[k]
	if !ok || !e.ExpiresAt.After(r.now()) {
		return nil
	}
	cp := *e
	cp.ResponseBody = append([]byte(nil), e.ResponseBody...)
	return &cp
}

// Set stores entry unless a live entry already holds the same key, and
// clears any claim on it.
func (r *IdempotencyRepository) Set(_ context.Context, entry *IdempotencyCacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := cacheKey{entry.Key, entry.Subject}
	delete(r.inFlight, k)
	if existing, ok := r.entries[k]; ok && existing.ExpiresAt.After(r.now()) {
		return nil
	}
	cp := *entry
	cp.ResponseBody = append([]byte(nil), entry.ResponseBody...)
	r.entries[k] = &cp
	return nil
}

func (r *IdempotencyRepository) CleanExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int64
	for k, e := range r.entries {
		if !e.ExpiresAt.After(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n, nil
}

func (r *IdempotencyRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
