package service

import (
	"sync"
	"time"

	"github.com/noah-isme/run-directory-api/internal/authoring"
)

type authoringSession struct {
	mu       sync.Mutex
	id       string
	form     *authoring.Form
	machine  authoring.Machine
	lastSeen time.Time
}

// sessionStore keeps open authoring sessions in memory. Entries idle for
// longer than ttl are dropped on access or by Sweep.
type sessionStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]*authoringSession
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]*authoringSession),
	}
}

func (s *sessionStore) Save(session *authoringSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.lastSeen = s.now()
	s.items[session.id] = session
}

func (s *sessionStore) Get(id string) (*authoringSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(session.lastSeen) > s.ttl {
		delete(s.items, id)
		return nil, false
	}
	session.lastSeen = now
	return session, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// ExpiresAt reports when session expires unless touched again.
func (s *sessionStore) ExpiresAt(session *authoringSession) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.lastSeen.Add(s.ttl)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *sessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, session := range s.items {
		if now.Sub(session.lastSeen) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
