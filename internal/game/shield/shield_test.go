package shield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearttiles/hearttiles-server/internal/game/card"
)

func TestShieldLifecycle(t *testing.T) {
	shields := make(Set)

	// Activated at turn 1: protects turns 1 and 2, gone entering turn 3.
	reinforced, err := shields.Activate("alice", 1)
	require.NoError(t, err)
	assert.False(t, reinforced)

	assert.True(t, IsActive(shields["alice"], 1))
	assert.Equal(t, 2, Remaining(shields["alice"], 1))

	shields.CheckAndExpire(2)
	require.Contains(t, shields, "alice")
	assert.True(t, IsActive(shields["alice"], 2))
	assert.Equal(t, 1, shields["alice"].RemainingTurns)

	shields.CheckAndExpire(3)
	assert.NotContains(t, shields, "alice")
}

func TestReinforceResetsWindow(t *testing.T) {
	shields := make(Set)
	_, err := shields.Activate("alice", 1)
	require.NoError(t, err)
	shields.CheckAndExpire(2)
	assert.Equal(t, 1, Remaining(shields["alice"], 2))

	// Reinforcement at turn 2 resets the full window regardless of what
	// was left.
	reinforced, err := shields.Activate("alice", 2)
	require.NoError(t, err)
	assert.True(t, reinforced)
	assert.Equal(t, 2, Remaining(shields["alice"], 2))
	assert.True(t, IsActive(shields["alice"], 3))

	shields.CheckAndExpire(4)
	assert.NotContains(t, shields, "alice")
}

func TestOpponentShieldBlocksActivation(t *testing.T) {
	shields := make(Set)
	_, err := shields.Activate("alice", 1)
	require.NoError(t, err)

	_, err = shields.Activate("bob", 1)
	assert.ErrorIs(t, err, card.ErrOpponentShielded)

	holder, ok := shields.ActiveHolder(1)
	require.True(t, ok)
	assert.Equal(t, "alice", holder)

	// Once alice's shield lapses bob may activate.
	shields.CheckAndExpire(3)
	_, err = shields.Activate("bob", 3)
	assert.NoError(t, err)
}

func TestOtherActiveHolder(t *testing.T) {
	shields := make(Set)
	_, err := shields.Activate("alice", 1)
	require.NoError(t, err)

	holder, ok := shields.OtherActiveHolder("bob", 1)
	require.True(t, ok)
	assert.Equal(t, "alice", holder)

	_, ok = shields.OtherActiveHolder("alice", 1)
	assert.False(t, ok, "a player is not their own opponent")
}

func TestExplicitCounterForm(t *testing.T) {
	// Test-constructed shields may use the bare counter without an
	// activation turn.
	s := &Shield{Active: true, RemainingTurns: 1, ProtectedPlayerID: "alice"}
	assert.True(t, IsActive(s, 99))
	assert.Equal(t, 1, Remaining(s, 99))

	s.RemainingTurns = 0
	assert.False(t, IsActive(s, 99))

	assert.False(t, IsActive(nil, 1))
	assert.False(t, IsActive(&Shield{Active: false, RemainingTurns: 2}, 1))
}
