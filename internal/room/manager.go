package room

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

// Store is the persistence collaborator the manager delegates to. All calls
// are best-effort: implementations are expected to log failures and degrade
// to empty/default results rather than break the in-memory game.
type Store interface {
	LoadRooms(ctx context.Context) (map[string]*Room, error)
	SaveRoom(ctx context.Context, r *Room) error
	DeleteRoom(ctx context.Context, code string) error
}

// Manager owns all rooms in the process and serializes every state-mutating
// command through the per-room turn lock. It is the explicit server context
// handlers receive; there are no ambient singletons.
type Manager struct {
	logger *zap.Logger
	engine *game.Engine
	store  Store
	clock  card.Clock
	locks  *LockTable

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager creates a room manager.
func NewManager(engine *game.Engine, store Store, clock card.Clock, logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		engine: engine,
		store:  store,
		clock:  clock,
		locks:  NewLockTable(),
		rooms:  make(map[string]*Room),
	}
}

// LoadFromStore populates the in-memory room table from persistence.
// Failures degrade to an empty table.
func (m *Manager) LoadFromStore(ctx context.Context) {
	rooms, err := m.store.LoadRooms(ctx)
	if err != nil {
		m.logger.Warn("loading rooms from store failed, starting empty", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range rooms {
		if r.State == nil {
			r.State = game.NewState()
		}
		m.rooms[code] = r
	}
	m.logger.Info("rooms loaded from store", zap.Int("count", len(rooms)))
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Snapshot returns a deep copy of a room's current state.
func (m *Manager) Snapshot(code string) (*Snapshot, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return TakeSnapshot(r), nil
}

// JoinResult reports a successful join.
type JoinResult struct {
	Room        *Snapshot
	Player      game.Player
	Created     bool
	Reconnected bool
}

// JoinRoom adds a player to a room, creating the room on first use of an
// unseen code. A member rejoining with the same user id is updated in place
// instead of duplicated; a third distinct player is rejected with
// ErrRoomFull.
func (m *Manager) JoinRoom(ctx context.Context, rawCode, rawName, userID string) (*JoinResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	name, err := SanitizeName(rawName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &JoinResult{}
	r, ok := m.rooms[code]
	if !ok {
		r = NewRoom(code, m.clock.Now())
		m.rooms[code] = r
		result.Created = true
		m.logger.Info("room created", zap.String("room_code", code))
	}

	if existing, ok := r.Player(userID); ok {
		existing.Name = name
		result.Reconnected = true
		result.Player = *existing
	} else {
		if len(r.Players) >= MaxPlayers {
			return nil, ErrRoomFull
		}
		p := &game.Player{UserID: userID, Name: name, JoinedAt: m.clock.Now()}
		r.Players = append(r.Players, p)
		result.Player = *p
	}

	m.persist(ctx, r)
	m.logger.Info("player joined room",
		zap.String("room_code", code),
		zap.String("user_id", userID),
		zap.Bool("reconnected", result.Reconnected),
	)
	result.Room = TakeSnapshot(r)
	return result, nil
}

// LeaveResult reports a leave, including whether the emptied room was
// destroyed.
type LeaveResult struct {
	Room        *Snapshot
	RoomDeleted bool
}

// LeaveRoom removes a player; the room is destroyed when its last player
// leaves. If the leaver held the turn in a running game, the turn passes to
// the remaining player.
func (m *Manager) LeaveRoom(ctx context.Context, rawCode, userID string) (*LeaveResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !r.RemovePlayer(userID) {
		return nil, ErrPlayerNotInRoom
	}

	delete(r.State.PlayerHands, userID)
	delete(r.State.PlayerActions, userID)
	delete(r.State.Shields, userID)

	if len(r.Players) == 0 {
		delete(m.rooms, code)
		if err := m.store.DeleteRoom(ctx, code); err != nil {
			m.logger.Warn("deleting room from store failed", zap.String("room_code", code), zap.Error(err))
		}
		m.logger.Info("room destroyed", zap.String("room_code", code))
		return &LeaveResult{RoomDeleted: true}, nil
	}

	if r.State.GameStarted && r.State.CurrentPlayerID == userID {
		r.State.CurrentPlayerID = r.Players[0].UserID
	}

	m.persist(ctx, r)
	m.logger.Info("player left room", zap.String("room_code", code), zap.String("user_id", userID))
	return &LeaveResult{Room: TakeSnapshot(r)}, nil
}

// ReadyResult reports a ready toggle and whether it started the game.
type ReadyResult struct {
	Room    *Snapshot
	Started bool
}

// SetReady marks a player ready. Once both seats are filled and ready the
// game starts: board generated, decks filled, hands dealt, a random first
// player chosen.
func (m *Manager) SetReady(ctx context.Context, rawCode, userID string) (*ReadyResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !m.locks.Acquire(code, userID) {
		return nil, ErrActionInProgress
	}
	defer m.locks.Release(code, userID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, p, err := m.member(code, userID)
	if err != nil {
		return nil, err
	}

	p.Ready = true
	result := &ReadyResult{}
	if r.AllReady() && !r.State.GameStarted && !r.State.GameEnded {
		if err := m.engine.Start(r.State, r.Players); err != nil {
			return nil, err
		}
		result.Started = true
	}

	m.persist(ctx, r)
	result.Room = TakeSnapshot(r)
	return result, nil
}

// DrawResult reports a successful draw.
type DrawResult struct {
	Room          *Snapshot
	Card          card.Card
	DeckRemaining int
	End           *game.Result
}

// DrawHeart draws a heart card for the player.
func (m *Manager) DrawHeart(ctx context.Context, rawCode, userID string) (*DrawResult, error) {
	return m.draw(ctx, rawCode, userID, m.engine.DrawHeart, func(s *game.State) int { return s.Deck.Remaining })
}

// DrawMagic draws a magic card for the player.
func (m *Manager) DrawMagic(ctx context.Context, rawCode, userID string) (*DrawResult, error) {
	return m.draw(ctx, rawCode, userID, m.engine.DrawMagic, func(s *game.State) int { return s.MagicDeck.Remaining })
}

func (m *Manager) draw(
	ctx context.Context,
	rawCode, userID string,
	drawFn func(*game.State, string) (card.Card, error),
	remaining func(*game.State) int,
) (*DrawResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !m.locks.Acquire(code, userID) {
		return nil, ErrActionInProgress
	}
	defer m.locks.Release(code, userID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, _, err := m.member(code, userID)
	if err != nil {
		return nil, err
	}

	drawn, err := drawFn(r.State, userID)
	if err != nil {
		return nil, err
	}

	// The drawn card is still pending play, so an empty-deck end is
	// deferred for this action window.
	end := m.finishIfOver(r, true)
	m.persist(ctx, r)
	return &DrawResult{
		Room:          TakeSnapshot(r),
		Card:          drawn,
		DeckRemaining: remaining(r.State),
		End:           end,
	}, nil
}

// PlaceResult reports a successful heart placement.
type PlaceResult struct {
	Room      *Snapshot
	Placement *game.PlacementResult
	End       *game.Result
}

// PlaceHeart plays a heart from the player's hand onto a tile.
func (m *Manager) PlaceHeart(ctx context.Context, rawCode, userID string, tileID int, heartID int64) (*PlaceResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !m.locks.Acquire(code, userID) {
		return nil, ErrActionInProgress
	}
	defer m.locks.Release(code, userID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, p, err := m.member(code, userID)
	if err != nil {
		return nil, err
	}

	placement, err := m.engine.PlaceHeart(r.State, p, tileID, heartID)
	if err != nil {
		return nil, err
	}

	end := m.finishIfOver(r, false)
	m.persist(ctx, r)
	return &PlaceResult{Room: TakeSnapshot(r), Placement: placement, End: end}, nil
}

// MagicResult reports a successful magic card use.
type MagicResult struct {
	Room   *Snapshot
	Effect *card.EffectResult
	End    *game.Result
}

// UseMagicCard plays a magic card. tileID is ignored for self-targeted
// shield cards; pass a negative value for those.
func (m *Manager) UseMagicCard(ctx context.Context, rawCode, userID string, cardID int64, tileID int) (*MagicResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !m.locks.Acquire(code, userID) {
		return nil, ErrActionInProgress
	}
	defer m.locks.Release(code, userID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, p, err := m.member(code, userID)
	if err != nil {
		return nil, err
	}

	effect, err := m.engine.UseMagicCard(r.State, p, r.Players, cardID, tileID)
	if err != nil {
		return nil, err
	}

	end := m.finishIfOver(r, false)
	m.persist(ctx, r)
	return &MagicResult{Room: TakeSnapshot(r), Effect: effect, End: end}, nil
}

// TurnResult reports a completed end-turn.
type TurnResult struct {
	Room   *Snapshot
	Change *game.TurnChange
	End    *game.Result
}

// EndTurn rotates the turn to the other player.
func (m *Manager) EndTurn(ctx context.Context, rawCode, userID string) (*TurnResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if !m.locks.Acquire(code, userID) {
		return nil, ErrActionInProgress
	}
	defer m.locks.Release(code, userID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, _, err := m.member(code, userID)
	if err != nil {
		return nil, err
	}

	change, err := m.engine.EndTurn(r.State, r.Players, userID)
	if err != nil {
		return nil, err
	}

	end := m.finishIfOver(r, false)
	m.persist(ctx, r)
	return &TurnResult{Room: TakeSnapshot(r), Change: change, End: end}, nil
}

// member resolves a room and one of its players. The caller must hold the
// room's turn lock and at least a read lock on m.mu; membership changes take
// the write lock, so game actions never race joins and leaves.
func (m *Manager) member(code, userID string) (*Room, *game.Player, error) {
	r, ok := m.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	if r.State == nil {
		r.State = game.NewState()
	}
	p, ok := r.Player(userID)
	if !ok {
		return nil, nil, ErrPlayerNotInRoom
	}
	return r, p, nil
}

// finishIfOver runs the game-end detector and, when a terminal condition
// holds, finalizes the game and returns the scoreboard. Corrupted state is
// logged and treated as not-ended; nothing is fabricated in its place.
func (m *Manager) finishIfOver(r *Room, allowEmptyDecks bool) *game.Result {
	check, err := game.CheckGameEnd(r.State, allowEmptyDecks)
	if err != nil {
		if errors.Is(err, game.ErrCorruptedState) {
			m.logger.Error("game state corrupted, skipping end check",
				zap.String("room_code", r.Code),
				zap.Error(err),
			)
			return nil
		}
		m.logger.Warn("game end check failed", zap.String("room_code", r.Code), zap.Error(err))
		return nil
	}
	if !check.ShouldEnd {
		return nil
	}

	result := game.Finish(r.State, r.Players, check.Reason)
	m.logger.Info("game ended",
		zap.String("room_code", r.Code),
		zap.String("reason", check.Reason),
		zap.Bool("tie", result.IsTie),
	)
	return result
}

func (m *Manager) persist(ctx context.Context, r *Room) {
	if err := m.store.SaveRoom(ctx, r); err != nil {
		m.logger.Warn("saving room failed", zap.String("room_code", r.Code), zap.Error(err))
	}
}
