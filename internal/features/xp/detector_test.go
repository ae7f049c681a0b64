package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectActivity_HuntingAttempt(t *testing.T) {
	a, ok := DetectActivity("Aragorn goes hunting in the dark forest...")

	require.True(t, ok)
	assert.Equal(t, "Aragorn", a.CharacterName)
	assert.Equal(t, ActivityHunting, a.Kind)
	assert.False(t, a.Success)
}

func TestDetectActivity_SuccessfulHunt(t *testing.T) {
	a, ok := DetectActivity("Aragorn goes hunting. The beast is slain — time to gut and harvest!")

	require.True(t, ok)
	assert.True(t, a.Success)
}

func TestDetectActivity_SuccessfulForaging(t *testing.T) {
	a, ok := DetectActivity("Мирэль goes foraging. Ripe berries everywhere, time to harvest!")

	require.True(t, ok)
	assert.Equal(t, "Мирэль", a.CharacterName)
	assert.Equal(t, ActivityForaging, a.Kind)
	assert.True(t, a.Success)
}

func TestDetectActivity_Fishing(t *testing.T) {
	a, ok := DetectActivity("Old Tom goes fishing by the river")

	require.True(t, ok)
	assert.Equal(t, "Old Tom", a.CharacterName)
	assert.Equal(t, ActivityFishing, a.Kind)
}

func TestDetectActivity_CaseInsensitiveKeywords(t *testing.T) {
	a, ok := DetectActivity("Aragorn GOES HUNTING. TIME TO HARVEST!")

	require.True(t, ok)
	assert.Equal(t, "Aragorn", a.CharacterName)
	assert.True(t, a.Success)
}

func TestDetectActivity_MultiWordName(t *testing.T) {
	a, ok := DetectActivity("Тень Севера goes hunting tonight")

	require.True(t, ok)
	assert.Equal(t, "Тень Севера", a.CharacterName)
}

func TestDetectActivity_NoKeyword(t *testing.T) {
	_, ok := DetectActivity("Aragorn tells a long story by the fire")
	assert.False(t, ok)
}

func TestDetectActivity_KeywordWithoutName(t *testing.T) {
	_, ok := DetectActivity(" goes hunting")
	assert.False(t, ok)
}

func TestDetectActivity_EmptyText(t *testing.T) {
	_, ok := DetectActivity("")
	assert.False(t, ok)
}
