package game

import "errors"

// Validation and action-limit errors. Messages are the machine-stable
// strings surfaced to the originating client in room-error events; none of
// them is fatal to the room.
var (
	ErrGameNotStarted    = errors.New("Game has not started")
	ErrGameAlreadyEnded  = errors.New("Game has already ended")
	ErrNotYourTurn       = errors.New("Not your turn")
	ErrDeckEmpty         = errors.New("Deck is empty")
	ErrHeartAlreadyDrawn = errors.New("Already drew a heart this turn")
	ErrMagicAlreadyDrawn = errors.New("Already drew a magic card this turn")
	ErrHeartLimit        = errors.New("Heart placement limit reached for this turn")
	ErrMagicLimit        = errors.New("Magic card limit reached for this turn")
	ErrCardNotInHand     = errors.New("Card not in hand")
	ErrDrawsOutstanding  = errors.New("You must draw your cards before ending the turn")
	ErrNotEnoughPlayers  = errors.New("Game requires two ready players")

	// ErrCorruptedState flags externally damaged state (missing tiles or
	// decks). Callers catch it and re-initialize rather than fabricate
	// plausible-looking state.
	ErrCorruptedState = errors.New("corrupted game state")
)
