package game

import (
	"time"

	"github.com/hearttiles/hearttiles-server/internal/game/board"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
	"github.com/hearttiles/hearttiles-server/internal/game/shield"
)

// Player is one of the two room members. UserID is the stable identity that
// survives reconnects.
type Player struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Ready    bool      `json:"ready"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Deck tracks how many cards remain in one of the two draw piles. Cards are
// materialized on draw; the pile itself is just a count.
type Deck struct {
	Remaining int    `json:"remaining"`
	Kind      string `json:"kind"`
}

// TurnActions counts what a player has done during their own turn. Reset to
// zero exactly once, at that player's end-of-turn.
type TurnActions struct {
	DrawnHeart     bool `json:"drawnHeart"`
	DrawnMagic     bool `json:"drawnMagic"`
	HeartsPlaced   int  `json:"heartsPlaced"`
	MagicCardsUsed int  `json:"magicCardsUsed"`
}

// State is the authoritative per-room game state. It is mutated only by the
// engine, under the room's turn lock.
type State struct {
	Tiles           []board.Tile           `json:"tiles"`
	GameStarted     bool                   `json:"gameStarted"`
	GameEnded       bool                   `json:"gameEnded"`
	CurrentPlayerID string                 `json:"currentPlayer"`
	TurnCount       int                    `json:"turnCount"`
	Deck            Deck                   `json:"deck"`
	MagicDeck       Deck                   `json:"magicDeck"`
	PlayerHands     map[string][]card.Card `json:"playerHands"`
	Shields         shield.Set             `json:"shields"`
	PlayerActions   map[string]*TurnActions `json:"playerActions"`
	EndReason       string                 `json:"endReason,omitempty"`
}

// NewState returns an empty, not-yet-started game state.
func NewState() *State {
	return &State{
		PlayerHands:   make(map[string][]card.Card),
		Shields:       make(shield.Set),
		PlayerActions: make(map[string]*TurnActions),
	}
}

// Actions returns the per-turn counters for a player, creating them on first
// use.
func (s *State) Actions(playerID string) *TurnActions {
	a, ok := s.PlayerActions[playerID]
	if !ok {
		a = &TurnActions{}
		s.PlayerActions[playerID] = a
	}
	return a
}

// Hand returns the player's current hand.
func (s *State) Hand(playerID string) []card.Card {
	return s.PlayerHands[playerID]
}

// takeFromHand removes the card with the given id from the player's hand.
func (s *State) takeFromHand(playerID string, cardID int64) (card.Card, bool) {
	hand := s.PlayerHands[playerID]
	for i, c := range hand {
		if c.ID == cardID {
			s.PlayerHands[playerID] = append(hand[:i], hand[i+1:]...)
			return c, true
		}
	}
	return card.Card{}, false
}

// The methods below implement card.Game so magic card effects can run
// against the state.

// TileTarget returns the targeting view of a tile.
func (s *State) TileTarget(tileID int) (card.Target, bool) {
	if tileID < 0 || tileID >= len(s.Tiles) {
		return card.Target{}, false
	}
	return s.Tiles[tileID].Target(), true
}

// RemovePlacedHeart vacates a tile and reports the removed heart and the
// tile's restored state.
func (s *State) RemovePlacedHeart(tileID int) (card.RemovedHeart, card.Target, bool) {
	if tileID < 0 || tileID >= len(s.Tiles) {
		return card.RemovedHeart{}, card.Target{}, false
	}
	removed, ok := board.RemoveHeart(&s.Tiles[tileID])
	if !ok {
		return card.RemovedHeart{}, card.Target{}, false
	}
	return card.RemovedHeart{
		Card:     card.NewHeart(removed.ID, removed.Color, removed.Value),
		PlacedBy: removed.PlacedBy,
		Score:    removed.Score,
	}, s.Tiles[tileID].Target(), true
}

// RecycleTile turns a tile white and returns its new state.
func (s *State) RecycleTile(tileID int) card.Target {
	board.Recycle(&s.Tiles[tileID])
	return s.Tiles[tileID].Target()
}

// ShieldActive reports whether the player holds an active shield right now.
func (s *State) ShieldActive(playerID string) bool {
	return shield.IsActive(s.Shields[playerID], s.TurnCount)
}

// OtherShieldHolder returns another player currently holding an active
// shield, if any.
func (s *State) OtherShieldHolder(playerID string) (string, bool) {
	return s.Shields.OtherActiveHolder(playerID, s.TurnCount)
}

// PlayerHeartsOnBoard counts the player's hearts currently placed.
func (s *State) PlayerHeartsOnBoard(playerID string) int {
	return board.HeartsPlacedBy(s.Tiles, playerID)
}

// ActivateShield activates or reinforces the player's shield and reports
// whether it was a reinforcement. The single-active-shield invariant has
// already been checked by the shield effect.
func (s *State) ActivateShield(playerID string) bool {
	reinforced, err := s.Shields.Activate(playerID, s.TurnCount)
	if err != nil {
		return false
	}
	return reinforced
}
