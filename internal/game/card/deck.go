package card

import (
	"sync"
	"time"
)

// DeckSize is the number of cards in each freshly generated deck.
const DeckSize = 16

// Magic deck composition: 6 wind, 5 recycle, 5 shield, total 16. The same
// counts weight single random draws.
const (
	WindCount    = 6
	RecycleCount = 5
	ShieldCount  = 5
)

// Rand is the randomness the deck generators consume. *rand.Rand satisfies
// it; tests inject seeded or scripted sources.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Clock abstracts wall-clock reads for id minting.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDSource mints unique card ids.
type IDSource interface {
	NextID() int64
}

// TimestampIDSource mints millisecond-timestamp ids, bumping past the last
// issued id so ids are strictly increasing even within one millisecond.
type TimestampIDSource struct {
	clock Clock

	mu   sync.Mutex
	last int64
}

// NewTimestampIDSource creates an id source reading from clock.
func NewTimestampIDSource(clock Clock) *TimestampIDSource {
	return &TimestampIDSource{clock: clock}
}

func (s *TimestampIDSource) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.clock.Now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// GenerateHeartDeck builds n independently randomized hearts: uniform color
// over the three heart colors, uniform value 1..3.
func GenerateHeartDeck(n int, rng Rand, ids IDSource) []Card {
	deck := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		color := HeartColors[rng.Intn(len(HeartColors))]
		value := rng.Intn(3) + 1
		deck = append(deck, NewHeart(ids.NextID(), color, value))
	}
	return deck
}

// GenerateMagicDeck builds the fixed 16-card magic deck: 6 wind, then 5
// recycle, then 5 shield. Ids are base+index+1, strictly increasing.
func GenerateMagicDeck(clock Clock) []Card {
	base := clock.Now().UnixMilli()
	deck := make([]Card, 0, DeckSize)
	add := func(kind Kind, count int) {
		for i := 0; i < count; i++ {
			deck = append(deck, NewMagic(base+int64(len(deck))+1, kind))
		}
	}
	add(KindWind, WindCount)
	add(KindRecycle, RecycleCount)
	add(KindShield, ShieldCount)
	return deck
}

// GenerateRandomMagicCard draws a single magic card with kind weighted
// 6/5/5 over a total weight of 16.
func GenerateRandomMagicCard(rng Rand, ids IDSource) Card {
	kind := KindShield
	switch r := rng.Intn(WindCount + RecycleCount + ShieldCount); {
	case r < WindCount:
		kind = KindWind
	case r < WindCount+RecycleCount:
		kind = KindRecycle
	}
	return NewMagic(ids.NextID(), kind)
}
