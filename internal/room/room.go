// Package room owns room lifecycle, membership and per-room mutual
// exclusion for the two-player heart tiles game.
package room

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/hearttiles/hearttiles-server/internal/game"
)

// MaxPlayers is the fixed number of seats in a room.
const MaxPlayers = 2

// MaxNameLength bounds sanitized display names.
const MaxNameLength = 20

// Lifecycle and membership errors, with the machine-stable messages the
// gateway forwards in room-error events.
var (
	ErrInvalidRoomCode   = errors.New("Invalid room code")
	ErrInvalidPlayerName = errors.New("Invalid player name")
	ErrRoomNotFound      = errors.New("Room not found")
	ErrRoomFull          = errors.New("Room is full")
	ErrPlayerNotInRoom   = errors.New("Player not in room")
	ErrActionInProgress  = errors.New("Another action is in progress, please wait")
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// NormalizeCode validates a room code and returns its canonical uppercase
// form. Codes are exactly 6 alphanumeric characters, case-insensitive.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", ErrInvalidRoomCode
	}
	return strings.ToUpper(code), nil
}

// nameDenylist holds markup and SQL metacharacter substrings stripped from
// display names before length validation.
var nameDenylist = []string{"<", ">", "&", "\"", "'", ";", "--"}

// SanitizeName trims and sanitizes a display name. Control characters are
// rejected outright; denylisted substrings are stripped. The result must be
// 1–20 printable characters.
func SanitizeName(name string) (string, error) {
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", ErrInvalidPlayerName
		}
	}
	for _, bad := range nameDenylist {
		name = strings.ReplaceAll(name, bad, "")
	}
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return "", ErrInvalidPlayerName
	}
	return name, nil
}

// Room is a session container for at most two players and one game state.
// All mutation happens inside the manager, under the room's turn lock.
type Room struct {
	Code      string         `json:"code"`
	Players   []*game.Player `json:"players"`
	State     *game.State    `json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewRoom creates an empty room with a fresh game state.
func NewRoom(code string, now time.Time) *Room {
	return &Room{
		Code:      code,
		Players:   make([]*game.Player, 0, MaxPlayers),
		State:     game.NewState(),
		CreatedAt: now,
	}
}

// Player returns the member with the given user id.
func (r *Room) Player(userID string) (*game.Player, bool) {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return nil, false
}

// RemovePlayer drops the member with the given user id, preserving order,
// and reports whether anyone was removed.
func (r *Room) RemovePlayer(userID string) bool {
	for i, p := range r.Players {
		if p.UserID == userID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// AllReady reports whether the room is full and every member is ready.
func (r *Room) AllReady() bool {
	if len(r.Players) != MaxPlayers {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}
