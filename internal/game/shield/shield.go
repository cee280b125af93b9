// Package shield implements the per-player protection state machine:
// Unshielded → Active(2) → Active(1) → Unshielded.
package shield

import (
	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

// Duration is how many turns a freshly activated shield protects for.
const Duration = 2

// Shield is one player's protection record. ActivatedTurn is the canonical
// representation; RemainingTurns exists so tests can build shields at an
// arbitrary point in their lifetime without a turn history.
type Shield struct {
	Active            bool   `json:"active"`
	RemainingTurns    int    `json:"remainingTurns"`
	ActivatedTurn     int    `json:"activatedTurn"`
	ActivatedBy       string `json:"activatedBy"`
	ProtectedPlayerID string `json:"protectedPlayerId"`
}

// IsActive reports whether the shield protects at the given turn count. When
// an activation turn is recorded the window is derived from it; otherwise the
// explicit counter decides.
func IsActive(s *Shield, currentTurn int) bool {
	if s == nil || !s.Active {
		return false
	}
	if s.ActivatedTurn > 0 {
		return currentTurn < s.ActivatedTurn+Duration
	}
	return s.RemainingTurns > 0
}

// Remaining returns how many turns of protection are left at the given turn
// count.
func Remaining(s *Shield, currentTurn int) int {
	if s == nil || !s.Active {
		return 0
	}
	if s.ActivatedTurn > 0 {
		left := s.ActivatedTurn + Duration - currentTurn
		if left < 0 {
			return 0
		}
		return left
	}
	return s.RemainingTurns
}

// Set maps protected player id to shield record.
type Set map[string]*Shield

// ActiveHolder returns the id of the player holding an active shield, if
// any. At most one shield is active at a time.
func (s Set) ActiveHolder(currentTurn int) (string, bool) {
	for id, sh := range s {
		if IsActive(sh, currentTurn) {
			return id, true
		}
	}
	return "", false
}

// OtherActiveHolder returns a player other than playerID holding an active
// shield, if any.
func (s Set) OtherActiveHolder(playerID string, currentTurn int) (string, bool) {
	for id, sh := range s {
		if id != playerID && IsActive(sh, currentTurn) {
			return id, true
		}
	}
	return "", false
}

// Activate activates a new shield for playerID or reinforces an existing
// one, resetting its window to the full duration. It fails with
// ErrOpponentShielded while any other player's shield is active.
func (s Set) Activate(playerID string, currentTurn int) (reinforced bool, err error) {
	if _, blocked := s.OtherActiveHolder(playerID, currentTurn); blocked {
		return false, card.ErrOpponentShielded
	}

	reinforced = IsActive(s[playerID], currentTurn)
	s[playerID] = &Shield{
		Active:            true,
		RemainingTurns:    Duration,
		ActivatedTurn:     currentTurn,
		ActivatedBy:       playerID,
		ProtectedPlayerID: playerID,
	}
	return reinforced, nil
}

// CheckAndExpire drops shields whose protection window has closed at the
// given turn count. Called once per end-of-turn, after the turn counter has
// advanced.
func (s Set) CheckAndExpire(currentTurn int) {
	for id, sh := range s {
		remaining := Remaining(sh, currentTurn)
		if remaining <= 0 {
			delete(s, id)
			continue
		}
		sh.RemainingTurns = remaining
	}
}
