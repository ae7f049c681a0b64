package characters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolevik.ru/xp-bot/internal/common"
)

func match(ownerID int64, name string) Match {
	return Match{
		Character: &Character{UserID: ownerID, Name: name},
		OwnerID:   ownerID,
	}
}

func TestDisambiguate_NoMatches(t *testing.T) {
	_, err := Disambiguate(nil, nil)
	assert.ErrorIs(t, err, common.ErrCharacterNotFound)
}

func TestDisambiguate_SingleMatch(t *testing.T) {
	m, err := Disambiguate([]Match{match(10, "Арагорн")}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), m.OwnerID)
}

func TestDisambiguate_MultipleWithoutMention(t *testing.T) {
	matches := []Match{match(10, "Тень"), match(20, "Тень")}

	_, err := Disambiguate(matches, nil)
	assert.ErrorIs(t, err, common.ErrCharacterAmbiguous)
}

func TestDisambiguate_MentionResolvesOwner(t *testing.T) {
	matches := []Match{match(10, "Тень"), match(20, "Тень")}
	mentioned := map[int64]bool{20: true}

	m, err := Disambiguate(matches, mentioned)
	require.NoError(t, err)
	assert.Equal(t, int64(20), m.OwnerID)
}

func TestDisambiguate_TwoMentionedOwnersStaysAmbiguous(t *testing.T) {
	matches := []Match{match(10, "Тень"), match(20, "Тень")}
	mentioned := map[int64]bool{10: true, 20: true}

	_, err := Disambiguate(matches, mentioned)
	assert.ErrorIs(t, err, common.ErrCharacterAmbiguous)
}

func TestDisambiguate_MentionedStrangerDoesNotResolve(t *testing.T) {
	matches := []Match{match(10, "Тень"), match(20, "Тень")}
	mentioned := map[int64]bool{30: true}

	_, err := Disambiguate(matches, mentioned)
	assert.ErrorIs(t, err, common.ErrCharacterAmbiguous)
}

func TestClosestName_ExactMatch(t *testing.T) {
	names := []string{"Арагорн", "Леголас", "Гимли"}

	name, ok := ClosestName("Леголас", names)
	require.True(t, ok)
	assert.Equal(t, "Леголас", name)
}

func TestClosestName_CaseInsensitive(t *testing.T) {
	names := []string{"Арагорн"}

	name, ok := ClosestName("арагорн", names)
	require.True(t, ok)
	assert.Equal(t, "Арагорн", name)
}

func TestClosestName_Typo(t *testing.T) {
	names := []string{"Арагорн", "Леголас"}

	name, ok := ClosestName("Арагон", names)
	require.True(t, ok)
	assert.Equal(t, "Арагорн", name)
}

func TestClosestName_TooDifferent(t *testing.T) {
	names := []string{"Арагорн", "Леголас"}

	_, ok := ClosestName("Боромир", names)
	assert.False(t, ok)
}

func TestClosestName_EmptyList(t *testing.T) {
	_, ok := ClosestName("Кто-то", nil)
	assert.False(t, ok)
}
