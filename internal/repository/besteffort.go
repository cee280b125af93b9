package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/room"
	"github.com/hearttiles/hearttiles-server/internal/session"
)

// FullStore is the union of the room and session store interfaces.
type FullStore interface {
	room.Store
	session.Store
}

// BestEffort decorates a store so persistence failures never reach game
// logic: errors are logged and reads degrade to empty results, keeping the
// in-memory game operational while durable storage is unavailable.
type BestEffort struct {
	inner  FullStore
	logger *zap.Logger
}

// NewBestEffort wraps a store.
func NewBestEffort(inner FullStore, logger *zap.Logger) *BestEffort {
	return &BestEffort{inner: inner, logger: logger}
}

func (b *BestEffort) LoadRooms(ctx context.Context) (map[string]*room.Room, error) {
	rooms, err := b.inner.LoadRooms(ctx)
	if err != nil {
		b.logger.Warn("load rooms failed, returning empty set", zap.Error(err))
		return map[string]*room.Room{}, nil
	}
	return rooms, nil
}

func (b *BestEffort) SaveRoom(ctx context.Context, r *room.Room) error {
	if err := b.inner.SaveRoom(ctx, r); err != nil {
		b.logger.Warn("save room failed", zap.String("room_code", r.Code), zap.Error(err))
	}
	return nil
}

func (b *BestEffort) DeleteRoom(ctx context.Context, code string) error {
	if err := b.inner.DeleteRoom(ctx, code); err != nil {
		b.logger.Warn("delete room failed", zap.String("room_code", code), zap.Error(err))
	}
	return nil
}

func (b *BestEffort) LoadPlayerSessions(ctx context.Context) (map[string]*session.Session, error) {
	sessions, err := b.inner.LoadPlayerSessions(ctx)
	if err != nil {
		b.logger.Warn("load player sessions failed, returning empty set", zap.Error(err))
		return map[string]*session.Session{}, nil
	}
	return sessions, nil
}

func (b *BestEffort) SavePlayerSession(ctx context.Context, sess *session.Session) error {
	if err := b.inner.SavePlayerSession(ctx, sess); err != nil {
		b.logger.Warn("save player session failed", zap.String("user_id", sess.UserID), zap.Error(err))
	}
	return nil
}
