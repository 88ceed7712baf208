package memory

import (
	"context"
	"sync"

	"driverbot/pkg/models"
	"driverbot/storage"
)

// SessionRepo keeps sessions in process memory; used when Redis is not configured.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[int64]models.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[int64]models.Session)}
}

var _ storage.ISessionStorage = (*SessionRepo)(nil)

// Get returns a copy; callers must Save to persist changes.
func (r *SessionRepo) Get(_ context.Context, teleID int64) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[teleID]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRepo) Save(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.TelegramID] = *s
	return nil
}

func (r *SessionRepo) Delete(_ context.Context, teleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, teleID)
	return nil
}
