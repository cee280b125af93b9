package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		heart     Card
		tileColor Color
		want      int
	}{
		{"white tile pays face value", NewHeart(1, ColorRed, 2), ColorWhite, 2},
		{"matching tile doubles", NewHeart(2, ColorRed, 2), ColorRed, 4},
		{"mismatched tile pays nothing", NewHeart(3, ColorRed, 2), ColorYellow, 0},
		{"green on green", NewHeart(4, ColorGreen, 3), ColorGreen, 6},
		{"value one on white", NewHeart(5, ColorYellow, 1), ColorWhite, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.heart, tt.tileColor))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindHeart, Classify(NewHeart(1, ColorRed, 2)))
	assert.Equal(t, KindWind, Classify(NewMagic(2, KindWind)))
	assert.Equal(t, KindRecycle, Classify(NewMagic(3, KindRecycle)))
	assert.Equal(t, KindShield, Classify(NewMagic(4, KindShield)))

	// Hearts with out-of-range values or non-heart colors are unknown.
	assert.Equal(t, KindUnknown, Classify(Card{Kind: KindHeart, Color: ColorRed, Value: 4}))
	assert.Equal(t, KindUnknown, Classify(Card{Kind: KindHeart, Color: ColorWhite, Value: 2}))
	assert.Equal(t, KindUnknown, Classify(Card{Kind: "banana"}))
	assert.Equal(t, KindUnknown, Classify(Card{}))
}

func TestFromRaw(t *testing.T) {
	t.Run("heart shape", func(t *testing.T) {
		c, err := FromRaw(map[string]any{
			"id":    float64(42),
			"kind":  "heart",
			"color": "red",
			"value": float64(3),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), c.ID)
		assert.Equal(t, KindHeart, c.Kind)
		assert.Equal(t, ColorRed, c.Color)
		assert.Equal(t, 3, c.Value)
		assert.Equal(t, HeartEmoji(ColorRed), c.Emoji)
	})

	t.Run("magic shape", func(t *testing.T) {
		c, err := FromRaw(map[string]any{"id": float64(7), "kind": "wind"})
		require.NoError(t, err)
		assert.Equal(t, KindWind, c.Kind)
		assert.True(t, c.IsMagic())
	})

	t.Run("untagged heart shape", func(t *testing.T) {
		c, err := FromRaw(map[string]any{"id": float64(9), "color": "green", "value": float64(1)})
		require.NoError(t, err)
		assert.Equal(t, KindHeart, c.Kind)
	})

	t.Run("invalid shapes", func(t *testing.T) {
		for name, raw := range map[string]map[string]any{
			"nil":           nil,
			"empty":         {},
			"bogus kind":    {"kind": "teleport"},
			"bad value":     {"color": "red", "value": float64(9)},
			"bad color":     {"color": "blue", "value": float64(2)},
			"value only":    {"value": float64(2)},
			"numbers only":  {"id": float64(1)},
		} {
			_, err := FromRaw(raw)
			assert.ErrorIs(t, err, ErrInvalidCardData, "case %q", name)
		}
	})
}
