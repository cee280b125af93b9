package repository

import (
	"context"
	"sync"

	"github.com/hearttiles/hearttiles-server/internal/room"
	"github.com/hearttiles/hearttiles-server/internal/session"
)

// MemoryStore is an in-process store used in tests and when the server runs
// without a database. Rooms pass through the record codec on the way in and
// out, so it round-trips exactly like a durable store.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string][]byte
	sessions map[string]session.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string][]byte),
		sessions: make(map[string]session.Session),
	}
}

// LoadRooms returns all stored rooms.
func (s *MemoryStore) LoadRooms(_ context.Context) (map[string]*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make(map[string]*room.Room, len(s.rooms))
	for code, data := range s.rooms {
		r, err := unmarshalRoom(data)
		if err != nil {
			return nil, err
		}
		rooms[code] = r
	}
	return rooms, nil
}

// SaveRoom stores a room snapshot.
func (s *MemoryStore) SaveRoom(_ context.Context, r *room.Room) error {
	data, err := marshalRoom(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.Code] = data
	return nil
}

// DeleteRoom removes a room.
func (s *MemoryStore) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// LoadPlayerSessions returns all stored sessions.
func (s *MemoryStore) LoadPlayerSessions(_ context.Context) (map[string]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make(map[string]*session.Session, len(s.sessions))
	for id, sess := range s.sessions {
		copied := sess
		sessions[id] = &copied
	}
	return sessions, nil
}

// SavePlayerSession stores a session.
func (s *MemoryStore) SavePlayerSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = *sess
	return nil
}
