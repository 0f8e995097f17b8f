package repository

import (
	"context"
	"sync"
	"time"
)

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// MemorySessionStore is the in-process session store used without Redis.
type MemorySessionStore struct {
	mu       sync.Mutex
	revoked  map[string]time.Time
	attempts map[string]*attemptWindow
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		revoked:  make(map[string]time.Time),
		attempts: make(map[string]*attemptWindow),
		now:      time.Now,
	}
}

func (r *MemorySessionStore) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = r.now().Add(ttl)
	return nil
}

func (r *MemorySessionStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if r.now().After(until) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (r *MemorySessionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.attempts[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &attemptWindow{expiresAt: now.Add(window)}
		r.attempts[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

func (r *MemorySessionStore) ResetRateLimit(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, key)
	return nil
}
