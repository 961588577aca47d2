// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCleanupInterval is how often MemoryStore sweeps expired entries
// when none is supplied to NewMemoryStore.
const DefaultCleanupInterval = 1 * time.Minute

// timedEntry wraps a value with the bookkeeping MemoryStore needs to
// expire it, including the original sliding window so Touch can
// re-arm it.
type timedEntry struct {
	value      []byte
	expiresAt  time.Time
	slidingTTL time.Duration
}

func (e *timedEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store with an in-memory map plus a background
// sweep goroutine. Suitable for single-instance deployments and tests;
// state is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*timedEntry
	clock   clockwork.Clock

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval overrides the background sweep period.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.cleanupInterval = d }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(c clockwork.Clock) MemoryStoreOption {
	return func(s *MemoryStore) { s.clock = c }
}

// NewMemoryStore creates a MemoryStore and starts its background sweep
// goroutine. Call Close to stop it.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:         make(map[string]*timedEntry),
		clock:           clockwork.NewRealClock(),
		cleanupInterval: DefaultCleanupInterval,
		stopCleanup:     make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background sweep goroutine and waits for it to exit.
func (s *MemoryStore) Close() error {
	close(s.stopCleanup)
	<-s.cleanupDone
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, opts SetOptions) error {
	now := s.clock.Now()
	ttl := opts.AbsoluteTTL
	if opts.SlidingTTL > 0 {
		ttl = opts.SlidingTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	buf := make([]byte, len(value))
	copy(buf, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &timedEntry{
		value:      buf,
		expiresAt:  expiresAt,
		slidingTTL: opts.SlidingTTL,
	}
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	now := s.clock.Now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || e.expired(now) {
		return nil, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// GetDelete implements Store.
func (s *MemoryStore) GetDelete(_ context.Context, key string) ([]byte, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return nil, ErrNotFound
	}
	delete(s.entries, key)
	return e.value, nil
}

// Touch implements Store.
func (s *MemoryStore) Touch(_ context.Context, key string) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return ErrNotFound
	}
	if e.slidingTTL > 0 {
		e.expiresAt = now.Add(e.slidingTTL)
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
