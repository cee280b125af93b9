package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/game"
	"github.com/hearttiles/hearttiles-server/internal/room"
)

type joinPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type placePayload struct {
	RoomCode string `json:"roomCode"`
	TileID   int    `json:"tileId"`
	HeartID  int64  `json:"heartId"`
}

type magicPayload struct {
	RoomCode string          `json:"roomCode"`
	CardID   int64           `json:"cardId"`
	Target   json.RawMessage `json:"targetTileId"`
}

var selfTarget = []byte(`"self"`)

// tileID resolves the target: a tile index for wind/recycle, or a negative
// sentinel for "self"-targeted shield cards.
func (p magicPayload) tileID() int {
	if len(p.Target) == 0 || bytes.Equal(p.Target, selfTarget) {
		return -1
	}
	var id int
	if err := json.Unmarshal(p.Target, &id); err != nil {
		return -1
	}
	return id
}

// handleCommand dispatches one inbound socket event. Every rejected command
// yields a single room-error back to the originating client and mutates
// nothing.
func (s *Server) handleCommand(c *Client, evt Event) {
	switch evt.Event {
	case "join-room":
		s.handleJoin(c, evt.Data)
	case "player-ready":
		s.handleReady(c, evt.Data)
	case "draw-heart":
		s.handleDrawHeart(c, evt.Data)
	case "draw-magic-card":
		s.handleDrawMagic(c, evt.Data)
	case "place-heart":
		s.handlePlaceHeart(c, evt.Data)
	case "use-magic-card":
		s.handleUseMagic(c, evt.Data)
	case "end-turn":
		s.handleEndTurn(c, evt.Data)
	case "leave-room":
		s.handleLeave(c, evt.Data)
	default:
		c.sendError("Unknown command", false)
	}
}

func (c *Client) sendError(message string, redirect bool) {
	c.sendEvent("room-error", map[string]any{
		"message":  message,
		"redirect": redirect,
	})
}

// fail reports a rejected command to its originator. Only a full room
// instructs the client to navigate away.
func (c *Client) fail(err error) {
	c.sendError(err.Error(), errors.Is(err, room.ErrRoomFull))
}

func (c *Client) roomCodeFrom(data json.RawMessage) string {
	var p roomPayload
	if len(data) > 0 {
		_ = json.Unmarshal(data, &p)
	}
	if p.RoomCode != "" {
		return p.RoomCode
	}
	return c.roomCode
}

func (s *Server) handleJoin(c *Client, data json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("Invalid message", false)
		return
	}

	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.JoinRoom(ctx, p.RoomCode, p.PlayerName, c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.JoinRoom(c, result.Room.Code)
	s.sessions.Touch(ctx, c.userID, result.Player.Name, result.Room.Code, time.Now())

	s.hub.Broadcast(result.Room.Code, "room-joined", map[string]any{
		"room":        result.Room,
		"player":      result.Player,
		"reconnected": result.Reconnected,
	})
}

func (s *Server) handleReady(c *Client, data json.RawMessage) {
	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.SetReady(ctx, c.roomCodeFrom(data), c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	if result.Started {
		s.hub.Broadcast(result.Room.Code, "game-start", map[string]any{"room": result.Room})
		return
	}
	s.hub.Broadcast(result.Room.Code, "room-updated", map[string]any{"room": result.Room})
}

func (s *Server) handleDrawHeart(c *Client, data json.RawMessage) {
	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.DrawHeart(ctx, c.roomCodeFrom(data), c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.Broadcast(result.Room.Code, "heart-drawn", map[string]any{
		"room":          result.Room,
		"playerId":      c.userID,
		"card":          result.Card,
		"deckRemaining": result.DeckRemaining,
	})
	s.broadcastEnd(result.Room.Code, result.End)
}

func (s *Server) handleDrawMagic(c *Client, data json.RawMessage) {
	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.DrawMagic(ctx, c.roomCodeFrom(data), c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.Broadcast(result.Room.Code, "magic-card-drawn", map[string]any{
		"room":          result.Room,
		"playerId":      c.userID,
		"card":          result.Card,
		"deckRemaining": result.DeckRemaining,
	})
	s.broadcastEnd(result.Room.Code, result.End)
}

func (s *Server) handlePlaceHeart(c *Client, data json.RawMessage) {
	var p placePayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("Invalid message", false)
		return
	}

	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.PlaceHeart(ctx, p.RoomCode, c.userID, p.TileID, p.HeartID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.Broadcast(result.Room.Code, "heart-placed", map[string]any{
		"room":      result.Room,
		"playerId":  c.userID,
		"placement": result.Placement,
	})
	s.broadcastEnd(result.Room.Code, result.End)
}

func (s *Server) handleUseMagic(c *Client, data json.RawMessage) {
	var p magicPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("Invalid message", false)
		return
	}

	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.UseMagicCard(ctx, p.RoomCode, c.userID, p.CardID, p.tileID())
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.Broadcast(result.Room.Code, "magic-card-used", map[string]any{
		"room":     result.Room,
		"playerId": c.userID,
		"effect":   result.Effect,
	})
	s.broadcastEnd(result.Room.Code, result.End)
}

func (s *Server) handleEndTurn(c *Client, data json.RawMessage) {
	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.EndTurn(ctx, c.roomCodeFrom(data), c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.Broadcast(result.Room.Code, "turn-changed", map[string]any{
		"room":          result.Room,
		"currentPlayer": result.Change.NextPlayerID,
		"turnCount":     result.Change.TurnCount,
	})
	s.broadcastEnd(result.Room.Code, result.End)
}

func (s *Server) handleLeave(c *Client, data json.RawMessage) {
	code := c.roomCodeFrom(data)

	ctx, cancel := clientContext()
	defer cancel()

	result, err := s.rooms.LeaveRoom(ctx, code, c.userID)
	if err != nil {
		c.fail(err)
		return
	}

	s.hub.LeaveRoom(c)
	s.sessions.Detach(ctx, c.userID, time.Now())

	if !result.RoomDeleted {
		s.hub.Broadcast(result.Room.Code, "player-left", map[string]any{
			"room":     result.Room,
			"playerId": c.userID,
		})
	}
	s.logger.Info("player left via socket",
		zap.String("user_id", c.userID),
		zap.Bool("room_deleted", result.RoomDeleted),
	)
}

func (s *Server) broadcastEnd(code string, end *game.Result) {
	if end == nil {
		return
	}
	s.hub.Broadcast(code, "game-ended", map[string]any{"result": end})
}
