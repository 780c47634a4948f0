package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local ConversationStore used in tests and
// single-instance deployments without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	pending  map[string]memoryEntry
	failures map[string]int
	now      func() time.Time
}

type memoryEntry struct {
	action    PendingAction
	expiresAt time.Time
}

func NewMemoryStore(pendingTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      pendingTTL,
		pending:  make(map[string]memoryEntry),
		failures: make(map[string]int),
		now:      time.Now,
	}
}

func (s *MemoryStore) key(tenantID, conversationID string) string {
	return tenantID + ":" + conversationID
}

func (s *MemoryStore) Pending(_ context.Context, tenantID, conversationID string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[s.key(tenantID, conversationID)]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.pending, s.key(tenantID, conversationID))
		return nil, nil
	}
	action := entry.action
	return &action, nil
}

func (s *MemoryStore) StagePending(_ context.Context, tenantID, conversationID string, action PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[s.key(tenantID, conversationID)] = memoryEntry{
		action:    action,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) TakePending(_ context.Context, tenantID, conversationID string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(tenantID, conversationID)
	entry, ok := s.pending[key]
	delete(s.pending, key)
	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}
	action := entry.action
	return &action, nil
}

func (s *MemoryStore) ClearPending(_ context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, s.key(tenantID, conversationID))
	return nil
}

func (s *MemoryStore) Failures(_ context.Context, tenantID, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[s.key(tenantID, conversationID)], nil
}

func (s *MemoryStore) BumpFailures(_ context.Context, tenantID, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[s.key(tenantID, conversationID)]++
	return s.failures[s.key(tenantID, conversationID)], nil
}

func (s *MemoryStore) ResetFailures(_ context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, s.key(tenantID, conversationID))
	return nil
}
