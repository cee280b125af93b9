// Package board holds the 8-tile board and its scoring rules.
package board

import (
	"errors"

	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

// Size is the fixed number of tiles on the board.
const Size = 8

// WhiteProbability is the chance a generated tile starts white.
const WhiteProbability = 0.3

// ErrTileOccupied is returned when a heart is placed on an occupied tile.
var ErrTileOccupied = errors.New("tile occupied")

// PlacedHeart records a heart sitting on a tile, together with everything
// needed to undo the placement exactly: the score it earned and the tile's
// pre-placement color.
type PlacedHeart struct {
	ID                int64      `json:"id"`
	Value             int        `json:"value"`
	Color             card.Color `json:"color"`
	Emoji             string     `json:"emoji"`
	PlacedBy          string     `json:"placedBy"`
	Score             int        `json:"score"`
	OriginalTileColor card.Color `json:"originalTileColor"`
}

// Tile is one board cell. While occupied its Color and Emoji mirror the
// placed heart; vacating restores the recorded original color.
type Tile struct {
	ID          int          `json:"id"`
	Color       card.Color   `json:"color"`
	Emoji       string       `json:"emoji"`
	PlacedHeart *PlacedHeart `json:"placedHeart,omitempty"`
}

// Occupied reports whether the tile holds a heart.
func (t *Tile) Occupied() bool { return t.PlacedHeart != nil }

// Target returns the tile's targeting view for card behaviors.
func (t *Tile) Target() card.Target {
	target := card.Target{TileColor: t.Color, Occupied: t.Occupied()}
	if t.PlacedHeart != nil {
		target.PlacedBy = t.PlacedHeart.PlacedBy
	}
	return target
}

// Generate builds the board: each tile white with probability 0.3, otherwise
// a uniform heart color. Ids follow generation order 0..7.
func Generate(rng card.Rand) []Tile {
	tiles := make([]Tile, Size)
	for i := range tiles {
		color := card.ColorWhite
		if rng.Float64() >= WhiteProbability {
			color = card.HeartColors[rng.Intn(len(card.HeartColors))]
		}
		tiles[i] = Tile{ID: i, Color: color, Emoji: card.TileEmoji(color)}
	}
	return tiles
}

// PlaceHeart puts a heart on an unoccupied tile and returns the score it
// earns. The tile takes on the heart's color and glyph and records its
// pre-placement color for later restoration.
func PlaceHeart(t *Tile, h card.Card, playerID string) (int, error) {
	if t.Occupied() {
		return 0, ErrTileOccupied
	}

	score := card.Score(h, t.Color)
	t.PlacedHeart = &PlacedHeart{
		ID:                h.ID,
		Value:             h.Value,
		Color:             h.Color,
		Emoji:             h.Emoji,
		PlacedBy:          playerID,
		Score:             score,
		OriginalTileColor: t.Color,
	}
	t.Color = h.Color
	t.Emoji = card.HeartEmoji(h.Color)
	return score, nil
}

// RemoveHeart vacates the tile and restores its original color and glyph.
// It returns the removed heart record.
func RemoveHeart(t *Tile) (PlacedHeart, bool) {
	if t.PlacedHeart == nil {
		return PlacedHeart{}, false
	}

	removed := *t.PlacedHeart
	t.Color = removed.OriginalTileColor
	t.Emoji = card.TileEmoji(removed.OriginalTileColor)
	t.PlacedHeart = nil
	return removed, true
}

// Recycle turns the tile white, clearing any stale heart reference.
func Recycle(t *Tile) {
	t.Color = card.ColorWhite
	t.Emoji = card.TileEmoji(card.ColorWhite)
	t.PlacedHeart = nil
}

// AllOccupied reports whether every tile holds a heart.
func AllOccupied(tiles []Tile) bool {
	if len(tiles) == 0 {
		return false
	}
	for i := range tiles {
		if !tiles[i].Occupied() {
			return false
		}
	}
	return true
}

// HeartsPlacedBy counts the hearts playerID currently has on the board.
func HeartsPlacedBy(tiles []Tile, playerID string) int {
	count := 0
	for i := range tiles {
		if tiles[i].PlacedHeart != nil && tiles[i].PlacedHeart.PlacedBy == playerID {
			count++
		}
	}
	return count
}
