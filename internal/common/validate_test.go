package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCharacterInput(t *testing.T) {
	cases := []struct {
		name  string
		in    CharacterInput
		valid bool
	}{
		{"простое имя", CharacterInput{Name: "Rook"}, true},
		{"кириллица", CharacterInput{Name: "Ларс Железнобокий"}, true},
		{"апостроф и дефис", CharacterInput{Name: "Кел'тар Ан-Нур"}, true},
		{"пустое имя", CharacterInput{Name: ""}, false},
		{"слишком длинное", CharacterInput{Name: strings.Repeat("а", 101)}, false},
		{"недопустимые символы", CharacterInput{Name: "Rook <script>"}, false},
		{"корректный url", CharacterInput{Name: "Rook", ImageURL: "https://example.com/rook.png"}, true},
		{"не http url", CharacterInput{Name: "Rook", ImageURL: "ftp://example.com/rook.png"}, false},
		{"мусор вместо url", CharacterInput{Name: "Rook", SheetURL: "не ссылка"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCharacterInput(tc.in)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateXPAmount(t *testing.T) {
	require.NoError(t, ValidateXPAmount(0, false))
	require.NoError(t, ValidateXPAmount(50, false))
	require.NoError(t, ValidateXPAmount(MaxXPGrant, false))
	require.NoError(t, ValidateXPAmount(-100, true))
	require.NoError(t, ValidateXPAmount(MinXPGrant, true))

	assert.ErrorIs(t, ValidateXPAmount(-1, false), ErrNegativeXP)
	assert.ErrorIs(t, ValidateXPAmount(MaxXPGrant+1, false), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateXPAmount(MinXPGrant-1, true), ErrInvalidAmount)
}

func TestValidateDailyCap(t *testing.T) {
	require.NoError(t, ValidateDailyCap(1))
	require.NoError(t, ValidateDailyCap(1000))
	assert.Error(t, ValidateDailyCap(0))
	assert.Error(t, ValidateDailyCap(1001))
}

func TestValidateTimezone(t *testing.T) {
	require.NoError(t, ValidateTimezone("UTC"))
	require.NoError(t, ValidateTimezone("Europe/Moscow"))
	require.NoError(t, ValidateTimezone("America/New_York"))
	assert.ErrorIs(t, ValidateTimezone(""), ErrInvalidTimezone)
	assert.ErrorIs(t, ValidateTimezone("Mars/Olympus"), ErrInvalidTimezone)
}
