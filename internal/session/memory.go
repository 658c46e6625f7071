package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/transcript"
)

// sweepInterval is how often Put scans for expired entries.
const sweepInterval = time.Minute

// MemoryStore is an in-process Store for local development and tests.
// Entries are kept serialized so callers never share state with the store.
// Expired entries are dropped when read and by a periodic sweep on Put.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests to exercise expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Put(_ context.Context, handle string, t transcript.Transcript, ttl time.Duration) error {
	if ttl <= 0 {
		return errInvalidTTL
	}
	data, err := transcript.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
	}
	s.entries[handle] = memoryEntry{data: data, expiresAt: now.Add(ttl)}
	return nil
}

// sweep drops every expired entry. Caller holds s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	for handle, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, handle)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) Get(_ context.Context, handle string) (transcript.Transcript, error) {
	s.mu.Lock()
	data, ok := s.load(handle)
	s.mu.Unlock()
	if !ok {
		return transcript.Transcript{}, ErrNotFound
	}
	return transcript.Unmarshal(data)
}

func (s *MemoryStore) Update(_ context.Context, handle string, fn UpdateFunc) (transcript.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.load(handle)
	if !ok {
		return transcript.Transcript{}, ErrNotFound
	}
	cur, err := transcript.Unmarshal(data)
	if err != nil {
		return transcript.Transcript{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return transcript.Transcript{}, err
	}
	if next.TTL() <= 0 {
		return transcript.Transcript{}, errInvalidTTL
	}
	payload, err := transcript.Marshal(next)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("marshal transcript: %w", err)
	}
	s.entries[handle] = memoryEntry{data: payload, expiresAt: s.now().Add(next.TTL())}
	return next, nil
}

// load returns the live entry for handle, dropping it if expired.
// Caller holds s.mu.
func (s *MemoryStore) load(handle string) ([]byte, bool) {
	e, ok := s.entries[handle]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, handle)
		return nil, false
	}
	return e.data, true
}

// Len returns the number of entries, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
