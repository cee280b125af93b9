package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hearttiles/hearttiles-server/internal/game/board"
	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

// Config carries the tunable game parameters.
type Config struct {
	DeckSize      int
	HandHearts    int
	HandMagic     int
	HeartsPerTurn int
	MagicPerTurn  int
}

// DefaultConfig returns the standard two-player rules.
func DefaultConfig() Config {
	return Config{
		DeckSize:      card.DeckSize,
		HandHearts:    3,
		HandMagic:     2,
		HeartsPerTurn: 2,
		MagicPerTurn:  1,
	}
}

// Engine applies validated game actions to room state. It holds no per-room
// state itself; callers serialize access per room via the turn lock.
type Engine struct {
	cfg    Config
	rng    card.Rand
	ids    card.IDSource
	clock  card.Clock
	logger *zap.Logger
}

// NewEngine creates an engine. The random source, id source and clock are
// injected so deck generation and id assignment are reproducible under test.
func NewEngine(cfg Config, rng card.Rand, ids card.IDSource, clock card.Clock, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, rng: rng, ids: ids, clock: clock, logger: logger}
}

// Start transitions WaitingForPlayers → InProgress: generates the board,
// fills both decks, deals each player 3 hearts + 2 magic cards, picks a
// random starting player and sets the turn counter to 1.
func (e *Engine) Start(state *State, players []*Player) error {
	if len(players) != 2 {
		return ErrNotEnoughPlayers
	}
	for _, p := range players {
		if !p.Ready {
			return ErrNotEnoughPlayers
		}
	}

	state.Tiles = board.Generate(e.rng)
	state.Deck = Deck{Remaining: e.cfg.DeckSize, Kind: "hearts"}
	state.MagicDeck = Deck{Remaining: e.cfg.DeckSize, Kind: "magic"}
	for _, p := range players {
		hand := card.GenerateHeartDeck(e.cfg.HandHearts, e.rng, e.ids)
		for i := 0; i < e.cfg.HandMagic; i++ {
			hand = append(hand, card.GenerateRandomMagicCard(e.rng, e.ids))
		}
		state.PlayerHands[p.UserID] = hand
		state.PlayerActions[p.UserID] = &TurnActions{}
	}

	state.CurrentPlayerID = players[e.rng.Intn(len(players))].UserID
	state.TurnCount = 1
	state.GameStarted = true
	state.GameEnded = false
	state.EndReason = ""

	if e.logger != nil {
		e.logger.Info("game started",
			zap.String("first_player", state.CurrentPlayerID),
			zap.Int("tiles", len(state.Tiles)),
		)
	}
	return nil
}

// validateTurn runs the checks shared by every in-game action.
func (e *Engine) validateTurn(state *State, playerID string) error {
	if !state.GameStarted {
		return ErrGameNotStarted
	}
	if state.GameEnded {
		return ErrGameAlreadyEnded
	}
	if state.CurrentPlayerID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// DrawHeart draws one randomized heart from the heart deck into the
// player's hand.
func (e *Engine) DrawHeart(state *State, playerID string) (card.Card, error) {
	if err := e.validateTurn(state, playerID); err != nil {
		return card.Card{}, err
	}
	actions := state.Actions(playerID)
	if actions.DrawnHeart {
		return card.Card{}, ErrHeartAlreadyDrawn
	}
	if state.Deck.Remaining < 1 {
		return card.Card{}, ErrDeckEmpty
	}

	drawn := card.GenerateHeartDeck(1, e.rng, e.ids)[0]
	state.PlayerHands[playerID] = append(state.PlayerHands[playerID], drawn)
	state.Deck.Remaining--
	actions.DrawnHeart = true
	return drawn, nil
}

// DrawMagic draws one weighted-random magic card from the magic deck into
// the player's hand.
func (e *Engine) DrawMagic(state *State, playerID string) (card.Card, error) {
	if err := e.validateTurn(state, playerID); err != nil {
		return card.Card{}, err
	}
	actions := state.Actions(playerID)
	if actions.DrawnMagic {
		return card.Card{}, ErrMagicAlreadyDrawn
	}
	if state.MagicDeck.Remaining < 1 {
		return card.Card{}, ErrDeckEmpty
	}

	drawn := card.GenerateRandomMagicCard(e.rng, e.ids)
	state.PlayerHands[playerID] = append(state.PlayerHands[playerID], drawn)
	state.MagicDeck.Remaining--
	actions.DrawnMagic = true
	return drawn, nil
}

// PlacementResult reports a successful heart placement.
type PlacementResult struct {
	Card        card.Card
	TileID      int
	Score       int
	PlayerScore int
}

// PlaceHeart plays a heart from the player's hand onto an unoccupied tile
// and credits the score to the player.
func (e *Engine) PlaceHeart(state *State, p *Player, tileID int, heartID int64) (*PlacementResult, error) {
	if err := e.validateTurn(state, p.UserID); err != nil {
		return nil, err
	}
	actions := state.Actions(p.UserID)
	if actions.HeartsPlaced >= e.cfg.HeartsPerTurn {
		return nil, ErrHeartLimit
	}
	if tileID < 0 || tileID >= len(state.Tiles) {
		return nil, card.ErrInvalidTarget
	}

	hand := state.PlayerHands[p.UserID]
	idx := -1
	for i, c := range hand {
		if c.ID == heartID && c.Kind == card.KindHeart {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCardNotInHand
	}

	score, err := board.PlaceHeart(&state.Tiles[tileID], hand[idx], p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", card.ErrInvalidTarget, err)
	}

	placed := hand[idx]
	state.PlayerHands[p.UserID] = append(hand[:idx], hand[idx+1:]...)
	actions.HeartsPlaced++
	p.Score += score

	return &PlacementResult{
		Card:        placed,
		TileID:      tileID,
		Score:       score,
		PlayerScore: p.Score,
	}, nil
}

// UseMagicCard plays a magic card from the player's hand. tileID carries the
// target for wind and recycle and is ignored by shield (self-targeted). On a
// wind removal the removed heart's recorded score is taken back from its
// owner.
func (e *Engine) UseMagicCard(state *State, p *Player, players []*Player, cardID int64, tileID int) (*card.EffectResult, error) {
	if err := e.validateTurn(state, p.UserID); err != nil {
		return nil, err
	}
	actions := state.Actions(p.UserID)
	if actions.MagicCardsUsed >= e.cfg.MagicPerTurn {
		return nil, ErrMagicLimit
	}

	hand := state.PlayerHands[p.UserID]
	idx := -1
	for i, c := range hand {
		if c.ID == cardID && c.IsMagic() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCardNotInHand
	}

	result, err := card.Execute(hand[idx], state, p.UserID, tileID)
	if err != nil {
		return nil, err
	}

	state.PlayerHands[p.UserID] = append(hand[:idx], hand[idx+1:]...)
	actions.MagicCardsUsed++

	if result.Removed != nil {
		for _, owner := range players {
			if owner.UserID == result.Removed.PlacedBy {
				owner.Score -= result.Removed.Score
				if owner.Score < 0 {
					owner.Score = 0
				}
				break
			}
		}
	}
	return result, nil
}

// TurnChange reports a completed end-turn transition.
type TurnChange struct {
	NextPlayerID string
	TurnCount    int
}

// EndTurn rotates the turn to the next player. The current player must have
// exhausted both draws (or the corresponding deck must be empty) before the
// turn can end. Their per-turn counters reset and shields advance.
func (e *Engine) EndTurn(state *State, players []*Player, playerID string) (*TurnChange, error) {
	if err := e.validateTurn(state, playerID); err != nil {
		return nil, err
	}

	actions := state.Actions(playerID)
	heartSatisfied := actions.DrawnHeart || state.Deck.Remaining == 0
	magicSatisfied := actions.DrawnMagic || state.MagicDeck.Remaining == 0
	if !heartSatisfied || !magicSatisfied {
		return nil, ErrDrawsOutstanding
	}

	state.PlayerActions[playerID] = &TurnActions{}
	state.TurnCount++
	state.Shields.CheckAndExpire(state.TurnCount)

	for i, p := range players {
		if p.UserID == playerID {
			state.CurrentPlayerID = players[(i+1)%len(players)].UserID
			break
		}
	}

	if e.logger != nil {
		e.logger.Debug("turn changed",
			zap.Int("turn", state.TurnCount),
			zap.String("next_player", state.CurrentPlayerID),
		)
	}
	return &TurnChange{NextPlayerID: state.CurrentPlayerID, TurnCount: state.TurnCount}, nil
}
