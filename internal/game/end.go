package game

import (
	"fmt"

	"github.com/hearttiles/hearttiles-server/internal/game/board"
)

// End reasons reported when a game terminates.
const (
	ReasonTilesFilled = "All tiles are filled"
	ReasonDecksEmpty  = "Both decks are empty"
)

// EndCheck is the verdict of the game-end detector.
type EndCheck struct {
	ShouldEnd bool
	Reason    string
}

// CheckGameEnd evaluates the terminal conditions after a mutation.
// allowEmptyDecks suppresses the empty-decks condition for one action
// window, e.g. right after a deck's last card was drawn but not yet played.
// Externally damaged state (missing tiles or negative deck counts) yields a
// safe no-end verdict together with ErrCorruptedState; the detector never
// fabricates replacement state.
func CheckGameEnd(state *State, allowEmptyDecks bool) (EndCheck, error) {
	if state == nil || !state.GameStarted {
		return EndCheck{}, nil
	}
	if len(state.Tiles) == 0 {
		return EndCheck{}, fmt.Errorf("%w: no tiles", ErrCorruptedState)
	}
	if state.Deck.Remaining < 0 || state.MagicDeck.Remaining < 0 {
		return EndCheck{}, fmt.Errorf("%w: negative deck count", ErrCorruptedState)
	}

	if board.AllOccupied(state.Tiles) {
		return EndCheck{ShouldEnd: true, Reason: ReasonTilesFilled}, nil
	}

	if !allowEmptyDecks && state.Deck.Remaining == 0 && state.MagicDeck.Remaining == 0 {
		return EndCheck{ShouldEnd: true, Reason: ReasonDecksEmpty}, nil
	}
	return EndCheck{}, nil
}

// Result is the final scoreboard handed to the broadcast and persistence
// collaborators.
type Result struct {
	Reason string         `json:"reason"`
	Winner *Player        `json:"winner,omitempty"`
	IsTie  bool           `json:"isTie"`
	Scores map[string]int `json:"scores"`
}

// Finish marks the game ended for the given reason and computes the winner:
// highest score, with ties reported explicitly instead of picking a side.
func Finish(state *State, players []*Player, reason string) *Result {
	state.GameEnded = true
	state.GameStarted = false
	state.EndReason = reason

	result := &Result{Reason: reason, Scores: make(map[string]int, len(players))}
	var best *Player
	tie := false
	for _, p := range players {
		result.Scores[p.UserID] = p.Score
		switch {
		case best == nil || p.Score > best.Score:
			best = p
			tie = false
		case p.Score == best.Score:
			tie = true
		}
	}
	if tie || best == nil {
		result.IsTie = true
		return result
	}
	result.Winner = best
	return result
}
