package room

import (
	"time"

	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/game/board"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
	"github.com/hearttiles/hearttiles-server/internal/game/shield"
)

// Snapshot is a deep, read-only copy of a room, taken under the room's turn
// lock. Broadcast and persistence collaborators receive snapshots so they
// never alias live mutable state.
type Snapshot struct {
	Code      string         `json:"code"`
	Players   []game.Player  `json:"players"`
	State     StateSnapshot  `json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
}

// StateSnapshot mirrors game.State with all nested structures copied.
type StateSnapshot struct {
	Tiles           []board.Tile                 `json:"tiles"`
	GameStarted     bool                         `json:"gameStarted"`
	GameEnded       bool                         `json:"gameEnded"`
	CurrentPlayerID string                       `json:"currentPlayer"`
	TurnCount       int                          `json:"turnCount"`
	Deck            game.Deck                    `json:"deck"`
	MagicDeck       game.Deck                    `json:"magicDeck"`
	PlayerHands     map[string][]card.Card       `json:"playerHands"`
	Shields         map[string]shield.Shield     `json:"shields"`
	PlayerActions   map[string]game.TurnActions  `json:"playerActions"`
	EndReason       string                       `json:"endReason,omitempty"`
}

// TakeSnapshot deep-copies the room.
func TakeSnapshot(r *Room) *Snapshot {
	snap := &Snapshot{
		Code:      r.Code,
		Players:   make([]game.Player, 0, len(r.Players)),
		CreatedAt: r.CreatedAt,
	}
	for _, p := range r.Players {
		snap.Players = append(snap.Players, *p)
	}

	st := r.State
	if st == nil {
		return snap
	}
	ss := StateSnapshot{
		GameStarted:     st.GameStarted,
		GameEnded:       st.GameEnded,
		CurrentPlayerID: st.CurrentPlayerID,
		TurnCount:       st.TurnCount,
		Deck:            st.Deck,
		MagicDeck:       st.MagicDeck,
		EndReason:       st.EndReason,
		Tiles:           make([]board.Tile, len(st.Tiles)),
		PlayerHands:     make(map[string][]card.Card, len(st.PlayerHands)),
		Shields:         make(map[string]shield.Shield, len(st.Shields)),
		PlayerActions:   make(map[string]game.TurnActions, len(st.PlayerActions)),
	}
	for i, t := range st.Tiles {
		ss.Tiles[i] = t
		if t.PlacedHeart != nil {
			ph := *t.PlacedHeart
			ss.Tiles[i].PlacedHeart = &ph
		}
	}
	for id, hand := range st.PlayerHands {
		ss.PlayerHands[id] = append([]card.Card(nil), hand...)
	}
	for id, sh := range st.Shields {
		if sh != nil {
			ss.Shields[id] = *sh
		}
	}
	for id, a := range st.PlayerActions {
		if a != nil {
			ss.PlayerActions[id] = *a
		}
	}
	snap.State = ss
	return snap
}
