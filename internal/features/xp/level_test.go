package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		name  string
		xp    int64
		level int
	}{
		{"ноль опыта — первый уровень", 0, 1},
		{"чуть меньше порога", 299, 1},
		{"ровно порог второго уровня", 300, 2},
		{"чуть больше порога", 301, 2},
		{"середина кривой", 14000, 6},
		{"перед десятым", 63999, 9},
		{"ровно потолок", 355000, 20},
		{"за потолком", 1000000, 20},
		{"отрицательный трактуется как ноль", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, LevelForXP(tt.xp))
		})
	}
}

// Кривая обязана строго возрастать, иначе уровни неоднозначны.
func TestLevelThresholds_StrictlyAscending(t *testing.T) {
	for i := 1; i < len(levelThresholds); i++ {
		assert.Greater(t, levelThresholds[i], levelThresholds[i-1],
			"порог %d не больше предыдущего", i)
	}
}

func TestLevelAndProgress_MidCurve(t *testing.T) {
	level, progress, required := LevelAndProgress(1000)

	assert.Equal(t, 3, level)
	require.NotNil(t, progress)
	require.NotNil(t, required)
	assert.Equal(t, int64(100), *progress)  // 1000 - 900
	assert.Equal(t, int64(1800), *required) // 2700 - 900
}

func TestLevelAndProgress_ExactThreshold(t *testing.T) {
	level, progress, required := LevelAndProgress(300)

	assert.Equal(t, 2, level)
	require.NotNil(t, progress)
	assert.Equal(t, int64(0), *progress)
	assert.Equal(t, int64(600), *required) // 900 - 300
}

func TestLevelAndProgress_MaxLevelHasNoProgress(t *testing.T) {
	level, progress, required := LevelAndProgress(400000)

	assert.Equal(t, 20, level)
	assert.Nil(t, progress)
	assert.Nil(t, required)
}
