package room

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

// recordingStore counts persistence calls and can be told to fail.
type recordingStore struct {
	saved   map[string]int
	deleted []string
	fail    error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: make(map[string]int)}
}

func (s *recordingStore) LoadRooms(context.Context) (map[string]*Room, error) {
	return nil, s.fail
}

func (s *recordingStore) SaveRoom(_ context.Context, r *Room) error {
	s.saved[r.Code]++
	return s.fail
}

func (s *recordingStore) DeleteRoom(_ context.Context, code string) error {
	s.deleted = append(s.deleted, code)
	return s.fail
}

func newTestManager(t *testing.T, seed int64) (*Manager, *recordingStore) {
	t.Helper()
	clock := &stubClock{now: time.UnixMilli(1_700_000_000_000)}
	engine := game.NewEngine(
		game.DefaultConfig(),
		rand.New(rand.NewSource(seed)),
		card.NewTimestampIDSource(clock),
		clock,
		zap.NewNop(),
	)
	store := newRecordingStore()
	return NewManager(engine, store, clock, zap.NewNop()), store
}

func TestJoinRoomCreatesAndFills(t *testing.T) {
	m, store := newTestManager(t, 1)
	ctx := context.Background()

	first, err := m.JoinRoom(ctx, "abc123", "Alice", "u1")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.False(t, first.Reconnected)
	assert.Equal(t, "ABC123", first.Room.Code, "code stored canonically")
	assert.Equal(t, "Alice", first.Player.Name)
	assert.Equal(t, 1, m.RoomCount())

	second, err := m.JoinRoom(ctx, "ABC123", "Bob", "u2")
	require.NoError(t, err)
	assert.False(t, second.Created)
	require.Len(t, second.Room.Players, 2)

	_, err = m.JoinRoom(ctx, "ABC123", "Carol", "u3")
	assert.ErrorIs(t, err, ErrRoomFull)

	assert.Equal(t, 2, store.saved["ABC123"], "each join persists the room")
}

func TestJoinRoomReconnect(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()

	_, err := m.JoinRoom(ctx, "ABC123", "Alice", "u1")
	require.NoError(t, err)

	// Same user id joining again updates in place instead of taking the
	// second seat.
	again, err := m.JoinRoom(ctx, "ABC123", "Alicia", "u1")
	require.NoError(t, err)
	assert.True(t, again.Reconnected)
	require.Len(t, again.Room.Players, 1)
	assert.Equal(t, "Alicia", again.Room.Players[0].Name)
}

func TestJoinRoomValidation(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()

	_, err := m.JoinRoom(ctx, "bad", "Alice", "u1")
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, err = m.JoinRoom(ctx, "ABC123", "<>", "u1")
	assert.ErrorIs(t, err, ErrInvalidPlayerName)
	assert.Equal(t, 0, m.RoomCount(), "rejected joins must not create rooms")
}

func TestLeaveRoomDeletesWhenEmpty(t *testing.T) {
	m, store := newTestManager(t, 1)
	ctx := context.Background()

	_, err := m.JoinRoom(ctx, "ABC123", "Alice", "u1")
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "ABC123", "Bob", "u2")
	require.NoError(t, err)

	left, err := m.LeaveRoom(ctx, "ABC123", "u1")
	require.NoError(t, err)
	assert.False(t, left.RoomDeleted)
	require.Len(t, left.Room.Players, 1)

	left, err = m.LeaveRoom(ctx, "ABC123", "u2")
	require.NoError(t, err)
	assert.True(t, left.RoomDeleted)
	assert.Equal(t, 0, m.RoomCount())
	assert.Equal(t, []string{"ABC123"}, store.deleted)

	_, err = m.LeaveRoom(ctx, "ABC123", "u2")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveRoomPassesTurn(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()
	startGame(t, m, ctx)

	snap, err := m.Snapshot("ABC123")
	require.NoError(t, err)
	leaver := snap.State.CurrentPlayerID
	stayer := "u1"
	if leaver == "u1" {
		stayer = "u2"
	}

	left, err := m.LeaveRoom(ctx, "ABC123", leaver)
	require.NoError(t, err)
	assert.Equal(t, stayer, left.Room.State.CurrentPlayerID)
	assert.NotContains(t, left.Room.State.PlayerHands, leaver)
	assert.NotContains(t, left.Room.State.PlayerActions, leaver)
}

func TestSetReadyStartsGame(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()

	_, err := m.JoinRoom(ctx, "ABC123", "Alice", "u1")
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "ABC123", "Bob", "u2")
	require.NoError(t, err)

	ready, err := m.SetReady(ctx, "ABC123", "u1")
	require.NoError(t, err)
	assert.False(t, ready.Started, "one ready player does not start the game")

	ready, err = m.SetReady(ctx, "ABC123", "u2")
	require.NoError(t, err)
	assert.True(t, ready.Started)
	assert.True(t, ready.Room.State.GameStarted)
	assert.Len(t, ready.Room.State.Tiles, 8)
	assert.Equal(t, 16, ready.Room.State.Deck.Remaining)
	assert.Len(t, ready.Room.State.PlayerHands["u1"], 5)
	assert.Len(t, ready.Room.State.PlayerHands["u2"], 5)

	// A redundant ready after the start is harmless and does not restart.
	ready, err = m.SetReady(ctx, "ABC123", "u1")
	require.NoError(t, err)
	assert.False(t, ready.Started)
}

// startGame joins two players and readies both.
func startGame(t *testing.T, m *Manager, ctx context.Context) {
	t.Helper()
	_, err := m.JoinRoom(ctx, "ABC123", "Alice", "u1")
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, "ABC123", "Bob", "u2")
	require.NoError(t, err)
	_, err = m.SetReady(ctx, "ABC123", "u1")
	require.NoError(t, err)
	ready, err := m.SetReady(ctx, "ABC123", "u2")
	require.NoError(t, err)
	require.True(t, ready.Started)
}

func TestFullTurnThroughManager(t *testing.T) {
	m, _ := newTestManager(t, 2)
	ctx := context.Background()
	startGame(t, m, ctx)

	snap, err := m.Snapshot("ABC123")
	require.NoError(t, err)
	current := snap.State.CurrentPlayerID
	other := "u1"
	if current == "u1" {
		other = "u2"
	}

	// Out-of-turn actions are rejected before anything mutates.
	_, err = m.DrawHeart(ctx, "ABC123", other)
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	heart, err := m.DrawHeart(ctx, "ABC123", current)
	require.NoError(t, err)
	assert.Equal(t, card.KindHeart, heart.Card.Kind)
	assert.Equal(t, 15, heart.DeckRemaining)
	assert.Nil(t, heart.End)

	magic, err := m.DrawMagic(ctx, "ABC123", current)
	require.NoError(t, err)
	assert.True(t, magic.Card.IsMagic())
	assert.Equal(t, 15, magic.DeckRemaining)

	// Place the drawn heart on the first free tile.
	tileID := -1
	for _, tile := range magic.Room.State.Tiles {
		if tile.PlacedHeart == nil {
			tileID = tile.ID
			break
		}
	}
	require.GreaterOrEqual(t, tileID, 0)

	placed, err := m.PlaceHeart(ctx, "ABC123", current, tileID, heart.Card.ID)
	require.NoError(t, err)
	assert.Equal(t, heart.Card.ID, placed.Placement.Card.ID)
	require.NotNil(t, placed.Room.State.Tiles[tileID].PlacedHeart)
	assert.Equal(t, current, placed.Room.State.Tiles[tileID].PlacedHeart.PlacedBy)

	turn, err := m.EndTurn(ctx, "ABC123", current)
	require.NoError(t, err)
	assert.Equal(t, other, turn.Change.NextPlayerID)
	assert.Equal(t, 2, turn.Change.TurnCount)
	assert.Nil(t, turn.End)
}

func TestActionBlockedWhileRoomLocked(t *testing.T) {
	m, _ := newTestManager(t, 2)
	ctx := context.Background()
	startGame(t, m, ctx)

	snap, err := m.Snapshot("ABC123")
	require.NoError(t, err)
	current := snap.State.CurrentPlayerID

	// Simulate a command still in flight by holding the room's turn lock.
	require.True(t, m.locks.Acquire("ABC123", "in-flight"))
	defer m.locks.Release("ABC123", "in-flight")

	_, err = m.DrawHeart(ctx, "ABC123", current)
	assert.ErrorIs(t, err, ErrActionInProgress)
	_, err = m.EndTurn(ctx, "ABC123", current)
	assert.ErrorIs(t, err, ErrActionInProgress)
	_, err = m.SetReady(ctx, "ABC123", current)
	assert.ErrorIs(t, err, ErrActionInProgress)
}

func TestGameEndsWhenDecksRunOut(t *testing.T) {
	m, _ := newTestManager(t, 3)
	ctx := context.Background()
	startGame(t, m, ctx)

	// Drain both decks directly; the next end-turn must detect the
	// terminal condition.
	m.mu.Lock()
	r := m.rooms["ABC123"]
	r.State.Deck.Remaining = 0
	r.State.MagicDeck.Remaining = 0
	current := r.State.CurrentPlayerID
	m.mu.Unlock()

	turn, err := m.EndTurn(ctx, "ABC123", current)
	require.NoError(t, err)
	require.NotNil(t, turn.End)
	assert.Equal(t, game.ReasonDecksEmpty, turn.End.Reason)
	assert.True(t, turn.Room.State.GameEnded)
	assert.False(t, turn.Room.State.GameStarted)
	assert.Len(t, turn.End.Scores, 2)
}

func TestDrawGraceDefersEmptyDeckEnd(t *testing.T) {
	m, _ := newTestManager(t, 3)
	ctx := context.Background()
	startGame(t, m, ctx)

	m.mu.Lock()
	r := m.rooms["ABC123"]
	r.State.Deck.Remaining = 1
	r.State.MagicDeck.Remaining = 0
	current := r.State.CurrentPlayerID
	m.mu.Unlock()

	// Drawing the last heart leaves both decks empty, but the drawn card
	// is still pending play: no end yet.
	drawn, err := m.DrawHeart(ctx, "ABC123", current)
	require.NoError(t, err)
	assert.Equal(t, 0, drawn.DeckRemaining)
	assert.Nil(t, drawn.End)

	// Ending the turn closes the window.
	turn, err := m.EndTurn(ctx, "ABC123", current)
	require.NoError(t, err)
	require.NotNil(t, turn.End)
	assert.Equal(t, game.ReasonDecksEmpty, turn.End.Reason)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m, _ := newTestManager(t, 4)
	ctx := context.Background()
	startGame(t, m, ctx)

	snap, err := m.Snapshot("ABC123")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the live room.
	snap.State.Tiles[0].Color = card.ColorRed
	snap.Players[0].Score = 999
	snap.State.PlayerHands["u1"] = nil

	fresh, err := m.Snapshot("ABC123")
	require.NoError(t, err)
	assert.NotEqual(t, 999, fresh.Players[0].Score)
	assert.Len(t, fresh.State.PlayerHands["u1"], 5)
}
