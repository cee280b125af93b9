// Package repository implements the persistence collaborator for rooms and
// player sessions.
package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/game/board"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
	"github.com/hearttiles/hearttiles-server/internal/game/shield"
	"github.com/hearttiles/hearttiles-server/internal/room"
)

// roomRecord is the storage representation of a room. It is the single
// serialization adapter between the in-memory model and any store: map
// valued fields (shields, per-turn actions, hands) are plain key→value
// objects here regardless of the store's native representation.
type roomRecord struct {
	Code      string        `json:"code"`
	CreatedAt time.Time     `json:"createdAt"`
	Players   []game.Player `json:"players"`
	State     stateRecord   `json:"state"`
}

type stateRecord struct {
	Tiles           []board.Tile                `json:"tiles"`
	GameStarted     bool                        `json:"gameStarted"`
	GameEnded       bool                        `json:"gameEnded"`
	CurrentPlayerID string                      `json:"currentPlayer"`
	TurnCount       int                         `json:"turnCount"`
	Deck            game.Deck                   `json:"deck"`
	MagicDeck       game.Deck                   `json:"magicDeck"`
	PlayerHands     map[string][]card.Card      `json:"playerHands"`
	Shields         map[string]shield.Shield    `json:"shields"`
	PlayerActions   map[string]game.TurnActions `json:"playerActions"`
	EndReason       string                      `json:"endReason,omitempty"`
}

func encodeRoom(r *room.Room) roomRecord {
	rec := roomRecord{
		Code:      r.Code,
		CreatedAt: r.CreatedAt,
		Players:   make([]game.Player, 0, len(r.Players)),
	}
	for _, p := range r.Players {
		rec.Players = append(rec.Players, *p)
	}

	st := r.State
	if st == nil {
		st = game.NewState()
	}
	sr := stateRecord{
		Tiles:           make([]board.Tile, len(st.Tiles)),
		GameStarted:     st.GameStarted,
		GameEnded:       st.GameEnded,
		CurrentPlayerID: st.CurrentPlayerID,
		TurnCount:       st.TurnCount,
		Deck:            st.Deck,
		MagicDeck:       st.MagicDeck,
		PlayerHands:     make(map[string][]card.Card, len(st.PlayerHands)),
		Shields:         make(map[string]shield.Shield, len(st.Shields)),
		PlayerActions:   make(map[string]game.TurnActions, len(st.PlayerActions)),
		EndReason:       st.EndReason,
	}
	for i, t := range st.Tiles {
		sr.Tiles[i] = t
		if t.PlacedHeart != nil {
			ph := *t.PlacedHeart
			sr.Tiles[i].PlacedHeart = &ph
		}
	}
	for id, hand := range st.PlayerHands {
		sr.PlayerHands[id] = append([]card.Card(nil), hand...)
	}
	for id, sh := range st.Shields {
		if sh != nil {
			sr.Shields[id] = *sh
		}
	}
	for id, a := range st.PlayerActions {
		if a != nil {
			sr.PlayerActions[id] = *a
		}
	}
	rec.State = sr
	return rec
}

func decodeRoom(rec roomRecord) *room.Room {
	r := room.NewRoom(rec.Code, rec.CreatedAt)
	for i := range rec.Players {
		p := rec.Players[i]
		r.Players = append(r.Players, &p)
	}

	st := r.State
	st.Tiles = make([]board.Tile, len(rec.State.Tiles))
	for i, t := range rec.State.Tiles {
		st.Tiles[i] = t
		if t.PlacedHeart != nil {
			ph := *t.PlacedHeart
			st.Tiles[i].PlacedHeart = &ph
		}
	}
	st.GameStarted = rec.State.GameStarted
	st.GameEnded = rec.State.GameEnded
	st.CurrentPlayerID = rec.State.CurrentPlayerID
	st.TurnCount = rec.State.TurnCount
	st.Deck = rec.State.Deck
	st.MagicDeck = rec.State.MagicDeck
	st.EndReason = rec.State.EndReason
	for id, hand := range rec.State.PlayerHands {
		st.PlayerHands[id] = append([]card.Card(nil), hand...)
	}
	for id, sh := range rec.State.Shields {
		copied := sh
		st.Shields[id] = &copied
	}
	for id, a := range rec.State.PlayerActions {
		copied := a
		st.PlayerActions[id] = &copied
	}
	return r
}

func marshalRoom(r *room.Room) ([]byte, error) {
	data, err := json.Marshal(encodeRoom(r))
	if err != nil {
		return nil, fmt.Errorf("marshal room %s: %w", r.Code, err)
	}
	return data, nil
}

func unmarshalRoom(data []byte) (*room.Room, error) {
	var rec roomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	return decodeRoom(rec), nil
}
