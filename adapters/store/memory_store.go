package store

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// MemoryStore is an in-memory implementation of ports.RateLimitStore.
// Entries whose window has elapsed are dropped by the sweeper; they would be
// reset on their next hit anyway, so eviction never changes a decision.
type MemoryStore struct {
	entries map[string]*core.RateLimitEntry
	mu      sync.Mutex
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory rate limit store
func NewMemoryStore(log logrus.FieldLogger) *MemoryStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MemoryStore{
		entries: make(map[string]*core.RateLimitEntry),
		log:     log,
		now:     time.Now,
	}
}

var _ ports.RateLimitStore = (*MemoryStore)(nil)

// Hit records a request for key under the store lock
func (s *MemoryStore) Hit(ctx context.Context, key string, profile core.RateLimitProfile, now time.Time) (core.RateLimitDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &core.RateLimitEntry{}
		s.entries[key] = entry
	}
	return entry.Hit(now, profile), nil
}

// Peek reports the quota for key without recording a request
func (s *MemoryStore) Peek(ctx context.Context, key string, profile core.RateLimitProfile, now time.Time) (core.RateLimitDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries[key].Status(now, profile), nil
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper evicts elapsed entries every interval until ctx is done
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep drops every entry whose window has elapsed and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			evicted++
		}
	}

	if evicted > 0 {
		s.log.WithField("evicted", evicted).Debug("rate limit sweeper evicted stale entries")
	}
	return evicted
}
