package repository

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/institute-api/internal/models"
)

// MemorySessionStore is a process-local session store used when Redis is disabled. Events
// fan out to every subscriber in the process.
type MemorySessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]models.Session
	subscribers map[chan models.SessionEvent]struct{}
	now         func() time.Time
}

// NewMemorySessionStore constructs an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions:    make(map[string]models.Session),
		subscribers: make(map[chan models.SessionEvent]struct{}),
		now:         time.Now,
	}
}

// Save stores session and notifies subscribers. Expired sessions are swept on every save so
// the map stays bounded by the number of live logins.
func (s *MemorySessionStore) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	s.sweepLocked(s.now())
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.broadcast(models.SessionEvent{Kind: models.SessionEventCreated, SessionID: session.ID})
	return nil
}

// Get returns a live session, lazily dropping expired ones.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session and notifies subscribers.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.broadcast(models.SessionEvent{Kind: models.SessionEventRevoked, SessionID: id})
	return nil
}

// Subscribe registers a listener that is removed when ctx ends.
func (s *MemorySessionStore) Subscribe(ctx context.Context) (<-chan models.SessionEvent, error) {
	ch := make(chan models.SessionEvent, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func (s *MemorySessionStore) broadcast(event models.SessionEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// dropped; subscribers re-read the store once their verification window lapses
		}
	}
}

func (s *MemorySessionStore) sweepLocked(now time.Time) {
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
