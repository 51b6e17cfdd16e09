package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

// SessionStore keeps sessions in process memory. Sessions do not survive a restart.
type SessionStore struct {
	mu   sync.RWMutex
	rows map[string]ports.SessionRecord
}

func NewSessionStore() *SessionStore {
	return &SessionStore{rows: map[string]ports.SessionRecord{}}
}

func (s *SessionStore) Put(_ context.Context, digest string, record ports.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[digest]; ok {
		return domain.ErrConflict
	}
	s.rows[digest] = record
	return nil
}

func (s *SessionStore) Get(_ context.Context, digest string) (ports.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.rows[digest]
	if !ok {
		return ports.SessionRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (s *SessionStore) Delete(_ context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, digest)
	return nil
}

func (s *SessionStore) CountActive(_ context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, record := range s.rows {
		if now.Before(record.ExpiresAt) {
			n++
		}
	}
	return n, nil
}
