package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

// scriptedRand replays fixed float and int sequences.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[r.fi%len(r.floats)]
	r.fi++
	return v
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[r.ii%len(r.ints)]
	r.ii++
	return v % n
}

func TestGenerate(t *testing.T) {
	// First four tiles white (roll < 0.3), rest colored by the int rolls.
	rng := &scriptedRand{
		floats: []float64{0.1, 0.2, 0.0, 0.29, 0.3, 0.9, 0.5, 0.31},
		ints:   []int{0, 1, 2, 0},
	}
	tiles := Generate(rng)
	require.Len(t, tiles, Size)

	for i, tile := range tiles {
		assert.Equal(t, i, tile.ID)
		assert.Equal(t, card.TileEmoji(tile.Color), tile.Emoji)
		assert.Nil(t, tile.PlacedHeart)
	}
	assert.Equal(t, card.ColorWhite, tiles[0].Color)
	assert.Equal(t, card.ColorWhite, tiles[3].Color)
	assert.Equal(t, card.ColorRed, tiles[4].Color)
	assert.Equal(t, card.ColorYellow, tiles[5].Color)
	assert.Equal(t, card.ColorGreen, tiles[6].Color)
}

func TestPlaceHeartScoring(t *testing.T) {
	heart := card.NewHeart(1, card.ColorRed, 2)

	tests := []struct {
		name      string
		tileColor card.Color
		want      int
	}{
		{"matching tile doubles", card.ColorRed, 4},
		{"white tile pays face value", card.ColorWhite, 2},
		{"mismatch pays nothing", card.ColorYellow, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := Tile{ID: 0, Color: tt.tileColor, Emoji: card.TileEmoji(tt.tileColor)}
			score, err := PlaceHeart(&tile, heart, "alice")
			require.NoError(t, err)
			assert.Equal(t, tt.want, score)

			// Tile mirrors the heart while occupied.
			assert.Equal(t, card.ColorRed, tile.Color)
			assert.Equal(t, card.HeartEmoji(card.ColorRed), tile.Emoji)
			require.NotNil(t, tile.PlacedHeart)
			assert.Equal(t, "alice", tile.PlacedHeart.PlacedBy)
			assert.Equal(t, tt.want, tile.PlacedHeart.Score)
			assert.Equal(t, tt.tileColor, tile.PlacedHeart.OriginalTileColor)
		})
	}
}

func TestPlaceHeartOccupied(t *testing.T) {
	tile := Tile{ID: 0, Color: card.ColorWhite, Emoji: card.TileEmoji(card.ColorWhite)}
	_, err := PlaceHeart(&tile, card.NewHeart(1, card.ColorRed, 1), "alice")
	require.NoError(t, err)

	_, err = PlaceHeart(&tile, card.NewHeart(2, card.ColorGreen, 1), "bob")
	assert.ErrorIs(t, err, ErrTileOccupied)
}

func TestRemoveHeartRestoresOriginalColor(t *testing.T) {
	tile := Tile{ID: 2, Color: card.ColorYellow, Emoji: card.TileEmoji(card.ColorYellow)}

	// Repeated place→remove cycles must restore the original color exactly
	// every time.
	for cycle := 0; cycle < 3; cycle++ {
		_, err := PlaceHeart(&tile, card.NewHeart(int64(cycle), card.ColorGreen, 2), "alice")
		require.NoError(t, err)
		assert.Equal(t, card.ColorGreen, tile.Color)

		removed, ok := RemoveHeart(&tile)
		require.True(t, ok)
		assert.Equal(t, "alice", removed.PlacedBy)
		assert.Equal(t, card.ColorYellow, tile.Color, "cycle %d", cycle)
		assert.Equal(t, card.TileEmoji(card.ColorYellow), tile.Emoji, "cycle %d", cycle)
		assert.Nil(t, tile.PlacedHeart)
	}

	_, ok := RemoveHeart(&tile)
	assert.False(t, ok, "removing from an empty tile is a no-op")
}

func TestRecycle(t *testing.T) {
	tile := Tile{ID: 1, Color: card.ColorRed, Emoji: card.TileEmoji(card.ColorRed)}
	Recycle(&tile)
	assert.Equal(t, card.ColorWhite, tile.Color)
	assert.Equal(t, card.TileEmoji(card.ColorWhite), tile.Emoji)
	assert.Nil(t, tile.PlacedHeart)
}

func TestAllOccupied(t *testing.T) {
	tiles := []Tile{
		{ID: 0, Color: card.ColorWhite},
		{ID: 1, Color: card.ColorRed},
	}
	assert.False(t, AllOccupied(tiles))
	assert.False(t, AllOccupied(nil), "an empty board is never full")

	for i := range tiles {
		_, err := PlaceHeart(&tiles[i], card.NewHeart(int64(i), card.ColorRed, 1), "alice")
		require.NoError(t, err)
	}
	assert.True(t, AllOccupied(tiles))
}

func TestHeartsPlacedBy(t *testing.T) {
	tiles := []Tile{
		{ID: 0, Color: card.ColorWhite},
		{ID: 1, Color: card.ColorRed},
		{ID: 2, Color: card.ColorGreen},
	}
	_, err := PlaceHeart(&tiles[0], card.NewHeart(1, card.ColorRed, 1), "alice")
	require.NoError(t, err)
	_, err = PlaceHeart(&tiles[1], card.NewHeart(2, card.ColorRed, 1), "bob")
	require.NoError(t, err)
	_, err = PlaceHeart(&tiles[2], card.NewHeart(3, card.ColorGreen, 1), "alice")
	require.NoError(t, err)

	assert.Equal(t, 2, HeartsPlacedBy(tiles, "alice"))
	assert.Equal(t, 1, HeartsPlacedBy(tiles, "bob"))
	assert.Equal(t, 0, HeartsPlacedBy(tiles, "carol"))
}
