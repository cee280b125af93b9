package card

// Target is the view of a board tile that targeting rules inspect.
type Target struct {
	TileColor Color
	Occupied  bool
	PlacedBy  string
}

// RemovedHeart describes a heart taken off the board by a wind effect.
type RemovedHeart struct {
	Card     Card
	PlacedBy string
	Score    int
}

// EffectResult reports the outcome of executing a magic card.
type EffectResult struct {
	Kind   Kind
	TileID int

	// Wind and recycle effects report the tile's state after execution.
	NewTileColor Color
	NewTileEmoji string

	// Wind effects carry the removed heart so the caller can adjust the
	// owner's score.
	Removed *RemovedHeart

	// Shield effects.
	Reinforced     bool
	RemainingTurns int
}

// Game is the slice of room game state that card effects read and mutate.
// The engine's game state implements it.
type Game interface {
	// TileTarget returns the targeting view of a tile, or false when the
	// tile id is out of range.
	TileTarget(tileID int) (Target, bool)
	// RemovePlacedHeart vacates a tile, restoring its original color, and
	// returns the removed heart.
	RemovePlacedHeart(tileID int) (RemovedHeart, Target, bool)
	// RecycleTile turns an unoccupied tile white.
	RecycleTile(tileID int) Target
	// ShieldActive reports whether the player currently holds an active
	// shield.
	ShieldActive(playerID string) bool
	// OtherShieldHolder returns the id of a player other than playerID who
	// holds an active shield, if any.
	OtherShieldHolder(playerID string) (string, bool)
	// PlayerHeartsOnBoard counts hearts the player currently has placed.
	PlayerHeartsOnBoard(playerID string) int
	// ActivateShield activates or reinforces playerID's shield and reports
	// whether it was a reinforcement.
	ActivateShield(playerID string) bool
}

// Score computes the points a heart earns on a tile of the given color:
// face value on white, double on a color match, nothing otherwise.
func Score(h Card, tileColor Color) int {
	switch tileColor {
	case ColorWhite:
		return h.Value
	case h.Color:
		return h.Value * 2
	default:
		return 0
	}
}

// Behavior bundles the targeting and execution rules for one card kind.
// Heart placement is driven by the turn controller, so the heart behavior
// carries targeting only.
type Behavior struct {
	CanTarget func(t Target, requesterID string) bool
	Execute   func(g Game, requesterID string, tileID int) (*EffectResult, error)
}

// behaviors is filled in init: the execute functions consult CanTarget, which
// reads this map, so a composite literal would form an initialization cycle.
var behaviors map[Kind]Behavior

func init() {
	behaviors = map[Kind]Behavior{
		KindHeart: {
			CanTarget: func(t Target, _ string) bool { return !t.Occupied },
		},
		KindWind: {
			CanTarget: func(t Target, requesterID string) bool {
				return t.Occupied && t.PlacedBy != requesterID
			},
			Execute: executeWind,
		},
		KindRecycle: {
			CanTarget: func(t Target, _ string) bool {
				return !t.Occupied && t.TileColor != ColorWhite
			},
			Execute: executeRecycle,
		},
		KindShield: {
			CanTarget: func(Target, string) bool { return false },
			Execute:   executeShield,
		},
	}
}

// CanTarget reports whether a card of kind k may be aimed at the tile.
func CanTarget(k Kind, t Target, requesterID string) bool {
	b, ok := behaviors[k]
	if !ok || b.CanTarget == nil {
		return false
	}
	return b.CanTarget(t, requesterID)
}

// Execute runs the effect of a magic card against the game state. It returns
// ErrInvalidCardData for kinds without an effect.
func Execute(c Card, g Game, requesterID string, tileID int) (*EffectResult, error) {
	b, ok := behaviors[c.Kind]
	if !ok || b.Execute == nil {
		return nil, ErrInvalidCardData
	}
	return b.Execute(g, requesterID, tileID)
}

func executeWind(g Game, requesterID string, tileID int) (*EffectResult, error) {
	t, ok := g.TileTarget(tileID)
	if !ok || !CanTarget(KindWind, t, requesterID) {
		return nil, ErrInvalidTarget
	}
	if g.ShieldActive(t.PlacedBy) {
		return nil, ErrShieldActive
	}

	removed, after, ok := g.RemovePlacedHeart(tileID)
	if !ok {
		return nil, ErrInvalidTarget
	}
	return &EffectResult{
		Kind:         KindWind,
		TileID:       tileID,
		NewTileColor: after.TileColor,
		NewTileEmoji: TileEmoji(after.TileColor),
		Removed:      &removed,
	}, nil
}

func executeRecycle(g Game, requesterID string, tileID int) (*EffectResult, error) {
	t, ok := g.TileTarget(tileID)
	if !ok || !CanTarget(KindRecycle, t, requesterID) {
		return nil, ErrInvalidTarget
	}
	// A shielded opponent with hearts on the board blocks recycling; the
	// shielded player may always recycle for themselves.
	if holder, ok := g.OtherShieldHolder(requesterID); ok && g.PlayerHeartsOnBoard(holder) > 0 {
		return nil, ErrShieldActive
	}

	after := g.RecycleTile(tileID)
	return &EffectResult{
		Kind:         KindRecycle,
		TileID:       tileID,
		NewTileColor: after.TileColor,
		NewTileEmoji: TileEmoji(after.TileColor),
	}, nil
}

func executeShield(g Game, requesterID string, _ int) (*EffectResult, error) {
	if _, ok := g.OtherShieldHolder(requesterID); ok {
		return nil, ErrOpponentShielded
	}

	reinforced := g.ActivateShield(requesterID)
	return &EffectResult{
		Kind:           KindShield,
		Reinforced:     reinforced,
		RemainingTurns: 2,
	}, nil
}
