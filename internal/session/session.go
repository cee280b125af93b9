// Package session tracks player identity across connections and bounds
// per-address connection counts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session records which room a player identity was last attached to, so a
// reconnecting socket re-attaches to the same player record.
type Session struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	RoomCode string    `json:"roomCode"`
	LastSeen time.Time `json:"lastSeen"`
}

// Store is the persistence collaborator for player sessions. Calls are
// best-effort.
type Store interface {
	LoadPlayerSessions(ctx context.Context) (map[string]*Session, error)
	SavePlayerSession(ctx context.Context, s *Session) error
}

// Manager keeps the in-memory session table.
type Manager struct {
	logger *zap.Logger
	store  Store
	ttl    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. Sessions idle longer than ttl are
// dropped by CleanupExpired.
func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger,
		store:    store,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// NewUserID mints a fresh stable player identity.
func NewUserID() string {
	return uuid.NewString()
}

// LoadFromStore populates the session table from persistence; failures
// degrade to an empty table.
func (m *Manager) LoadFromStore(ctx context.Context) {
	sessions, err := m.store.LoadPlayerSessions(ctx)
	if err != nil {
		m.logger.Warn("loading player sessions failed, starting empty", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range sessions {
		m.sessions[id] = s
	}
	m.logger.Info("player sessions loaded", zap.Int("count", len(sessions)))
}

// Get returns the session for a user id.
func (m *Manager) Get(userID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Touch records that a user is (still) attached to a room and persists the
// session best-effort.
func (m *Manager) Touch(ctx context.Context, userID, name, roomCode string, now time.Time) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{UserID: userID}
		m.sessions[userID] = s
	}
	s.Name = name
	s.RoomCode = roomCode
	s.LastSeen = now
	saved := *s
	m.mu.Unlock()

	if err := m.store.SavePlayerSession(ctx, &saved); err != nil {
		m.logger.Warn("saving player session failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// Detach clears the room association for a user, keeping the rest of the
// session record intact.
func (m *Manager) Detach(ctx context.Context, userID string, now time.Time) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	var saved Session
	if ok {
		s.RoomCode = ""
		s.LastSeen = now
		saved = *s
	}
	m.mu.Unlock()

	if ok {
		if err := m.store.SavePlayerSession(ctx, &saved); err != nil {
			m.logger.Warn("saving player session failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// CleanupExpired drops idle sessions periodically until ctx is cancelled.
func (m *Manager) CleanupExpired(ctx context.Context) {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen) > m.ttl {
			delete(m.sessions, id)
			expired++
		}
	}
	if expired > 0 {
		m.logger.Debug("expired idle sessions", zap.Int("count", expired))
	}
}
