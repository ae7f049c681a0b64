package characters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateArgs(t *testing.T) {
	art := "https://example.com/art.png"
	sheet := "https://example.com/sheet"

	tests := []struct {
		name     string
		args     []string
		wantName string
		wantXP   int64
		wantArt  *string
		wantList *string
	}{
		{"только имя", []string{"Арагорн"}, "Арагорн", 0, nil, nil},
		{"имя из двух слов", []string{"Арагорн", "Элессар"}, "Арагорн Элессар", 0, nil, nil},
		{"имя и опыт", []string{"Арагорн", "300"}, "Арагорн", 300, nil, nil},
		{"имя и ссылки", []string{"Арагорн", art, sheet}, "Арагорн", 0, &art, &sheet},
		{"имя, опыт и ссылки", []string{"Арагорн", "300", art, sheet}, "Арагорн", 300, &art, &sheet},
		{"одинокое число остаётся именем", []string{"47"}, "47", 0, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, xp, imageURL, sheetURL := parseCreateArgs(tt.args)

			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantXP, xp)
			if tt.wantArt == nil {
				assert.Nil(t, imageURL)
			} else {
				require.NotNil(t, imageURL)
				assert.Equal(t, *tt.wantArt, *imageURL)
			}
			if tt.wantList == nil {
				assert.Nil(t, sheetURL)
			} else {
				require.NotNil(t, sheetURL)
				assert.Equal(t, *tt.wantList, *sheetURL)
			}
		})
	}
}
