package session

import (
	"context"
	"sync"
	"time"
)

// MemStore — хранилище истории в памяти процесса.
//
// Fallback на случай недоступной БД: история живёт до рестарта.
// Потокобезопасно.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

// NewMemStore создаёт пустое in-memory хранилище.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string][]Turn)}
}

// History возвращает последние limit реплик диалога.
func (s *MemStore) History(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append дописывает реплики в конец диалога.
func (s *MemStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		s.sessions[sessionID] = append(s.sessions[sessionID], t)
	}
	return nil
}

// Clear удаляет диалог целиком.
func (s *MemStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// PruneIdle удаляет диалоги, последняя реплика которых старше olderThan.
func (s *MemStore) PruneIdle(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, turns := range s.sessions {
		if len(turns) == 0 {
			delete(s.sessions, id)
			continue
		}
		if turns[len(turns)-1].CreatedAt.Before(olderThan) {
			removed += int64(len(turns))
			delete(s.sessions, id)
		}
	}
	return removed, nil
}
