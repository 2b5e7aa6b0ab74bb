package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. Expired records are dropped lazily.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, ttl time.Duration) (State, Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if rec, ok := s.records[key]; ok && now.Before(rec.ExpiresAt) {
		if rec.Fingerprint != fingerprint {
			return 0, Response{}, ErrFingerprintMismatch
		}
		if rec.Completed {
			return StateCompleted, rec.Response, nil
		}
		return StatePending, Response{}, nil
	}
	s.records[key] = Record{Fingerprint: fingerprint, ExpiresAt: now.Add(ttl)}
	return StateNew, Response{}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, fingerprint string, resp Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	s.records[key] = Record{Fingerprint: fingerprint, Completed: true, Response: resp, ExpiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}
