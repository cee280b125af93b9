package card

import (
	"errors"
)

// Kind discriminates the closed set of card kinds.
type Kind string

const (
	KindHeart   Kind = "heart"
	KindWind    Kind = "wind"
	KindRecycle Kind = "recycle"
	KindShield  Kind = "shield"
	KindUnknown Kind = "unknown"
)

// Color is a heart or tile color. White is valid only for tiles.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorWhite  Color = "white"
)

// HeartColors are the colors a heart card may carry.
var HeartColors = []Color{ColorRed, ColorYellow, ColorGreen}

var heartEmojis = map[Color]string{
	ColorRed:    "❤️",
	ColorYellow: "💛",
	ColorGreen:  "💚",
}

var tileEmojis = map[Color]string{
	ColorRed:    "🟥",
	ColorYellow: "🟨",
	ColorGreen:  "🟩",
	ColorWhite:  "⬜",
}

var magicEmojis = map[Kind]string{
	KindWind:    "💨",
	KindRecycle: "♻️",
	KindShield:  "🛡️",
}

// HeartEmoji returns the glyph for a heart of the given color, or "" if the
// color is not a heart color.
func HeartEmoji(c Color) string {
	return heartEmojis[c]
}

// TileEmoji returns the glyph for a board tile of the given color.
func TileEmoji(c Color) string {
	return tileEmojis[c]
}

// Card is the tagged union over heart and magic cards. Color and Value are
// meaningful only when Kind == KindHeart.
type Card struct {
	ID    int64  `json:"id"`
	Kind  Kind   `json:"kind"`
	Color Color  `json:"color,omitempty"`
	Value int    `json:"value,omitempty"`
	Emoji string `json:"emoji"`
}

// Effect and validation errors shared by the card behaviors.
var (
	ErrInvalidCardData  = errors.New("invalid card data")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrShieldActive     = errors.New("shield active")
	ErrOpponentShielded = errors.New("opponent shielded")
)

// IsHeart reports whether c has the shape of a heart card: a heart color, a
// value in 1..3 and one of the three heart glyphs.
func (c Card) IsHeart() bool {
	if c.Value < 1 || c.Value > 3 {
		return false
	}
	glyph, ok := heartEmojis[c.Color]
	if !ok {
		return false
	}
	return c.Emoji == "" || c.Emoji == glyph
}

// IsMagic reports whether c carries one of the magic kind tags.
func (c Card) IsMagic() bool {
	switch c.Kind {
	case KindWind, KindRecycle, KindShield:
		return true
	}
	return false
}

// Classify returns the kind a card's shape implies. A card that is neither a
// well-formed heart nor a tagged magic card classifies as KindUnknown.
func Classify(c Card) Kind {
	if c.Kind == KindHeart && c.IsHeart() {
		return KindHeart
	}
	if c.IsMagic() {
		return c.Kind
	}
	if c.IsHeart() {
		return KindHeart
	}
	return KindUnknown
}

// FromRaw reconstructs a card from deserialized key/value data, as loaded
// from the persistence layer. It fails with ErrInvalidCardData when the data
// matches neither the heart nor the magic shape, including nil/empty input.
func FromRaw(raw map[string]any) (Card, error) {
	if len(raw) == 0 {
		return Card{}, ErrInvalidCardData
	}

	c := Card{
		ID:    rawInt64(raw["id"]),
		Value: int(rawInt64(raw["value"])),
	}
	if kind, ok := raw["kind"].(string); ok {
		c.Kind = Kind(kind)
	}
	if color, ok := raw["color"].(string); ok {
		c.Color = Color(color)
	}
	if emoji, ok := raw["emoji"].(string); ok {
		c.Emoji = emoji
	}

	switch {
	case c.IsMagic():
		c.Kind = Classify(c)
		if c.Emoji == "" {
			c.Emoji = magicEmojis[c.Kind]
		}
		return c, nil
	case c.IsHeart():
		c.Kind = KindHeart
		if c.Emoji == "" {
			c.Emoji = heartEmojis[c.Color]
		}
		return c, nil
	}
	return Card{}, ErrInvalidCardData
}

func rawInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// NewHeart builds a heart card with the glyph derived from its color.
func NewHeart(id int64, color Color, value int) Card {
	return Card{
		ID:    id,
		Kind:  KindHeart,
		Color: color,
		Value: value,
		Emoji: heartEmojis[color],
	}
}

// NewMagic builds a magic card of the given kind with its glyph.
func NewMagic(id int64, kind Kind) Card {
	return Card{
		ID:    id,
		Kind:  kind,
		Emoji: magicEmojis[kind],
	}
}
