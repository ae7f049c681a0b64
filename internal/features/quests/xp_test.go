package quests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolevik.ru/xp-bot/internal/common"
)

func TestXPForCR_KnownValues(t *testing.T) {
	tests := []struct {
		cr string
		xp int64
	}{
		{"0", 0},
		{"1/8", 25},
		{"1/4", 50},
		{"1/2", 100},
		{"1", 200},
		{"5", 1800},
		{"10", 5900},
		{"20", 25000},
		{"30", 155000},
	}

	for _, tt := range tests {
		t.Run("CR "+tt.cr, func(t *testing.T) {
			xp, err := XPForCR(tt.cr)
			require.NoError(t, err)
			assert.Equal(t, tt.xp, xp)
		})
	}
}

func TestXPForCR_Unknown(t *testing.T) {
	for _, cr := range []string{"31", "-1", "1/3", "", "дракон"} {
		_, err := XPForCR(cr)
		assert.ErrorIs(t, err, common.ErrUnknownCR, "CR %q", cr)
	}
}

func TestCalculateQuestXP_SumsMonsters(t *testing.T) {
	monsters := []Monster{
		{CR: "1/2", Count: 4}, // 400
		{CR: "3", Count: 2},   // 1400
		{CR: "5", Count: 1},   // 1800
	}

	result := CalculateQuestXP(monsters)

	assert.Equal(t, int64(3600), result.TotalXP)
	assert.Equal(t, 7, result.MonsterCount)
	require.Len(t, result.Breakdown, 3)
	assert.Equal(t, int64(400), result.Breakdown[0].Subtotal)
}

func TestCalculateQuestXP_UnknownCRDoesNotAbort(t *testing.T) {
	monsters := []Monster{
		{CR: "2", Count: 1},  // 450
		{CR: "31", Count: 3}, // неизвестный — в разбивку с ошибкой
		{CR: "1", Count: 2},  // 400
	}

	result := CalculateQuestXP(monsters)

	assert.Equal(t, int64(850), result.TotalXP)
	assert.Equal(t, 3, result.MonsterCount)
	require.Len(t, result.Breakdown, 3)
	assert.Error(t, result.Breakdown[1].Err)
	assert.Equal(t, int64(0), result.Breakdown[1].Subtotal)
}

func TestCalculateQuestXP_ZeroCountTreatedAsOne(t *testing.T) {
	result := CalculateQuestXP([]Monster{{CR: "1", Count: 0}})

	assert.Equal(t, int64(200), result.TotalXP)
	assert.Equal(t, 1, result.MonsterCount)
}

// Расчёт не изменяет входные данные: по замороженным записям
// завершённого квеста его можно повторять сколько угодно раз.
func TestCalculateQuestXP_Idempotent(t *testing.T) {
	monsters := []Monster{{CR: "4", Count: 2}, {CR: "1/8", Count: 8}}

	first := CalculateQuestXP(monsters)
	second := CalculateQuestXP(monsters)

	assert.Equal(t, first.TotalXP, second.TotalXP)
	assert.Equal(t, first.MonsterCount, second.MonsterCount)
}

// Повторный показ карточки завершённого квеста воспроизводит тот же
// итог, что был выдан при завершении.
func TestSettle_SameResultOnRedisplay(t *testing.T) {
	q := &Quest{Name: "Логово дракона", Status: StatusCompleted}
	monsters := []Monster{{CR: "1/2", Count: 4}, {CR: "3", Count: 2}}

	atCompletion := Settle(q, 3, monsters)
	onRedisplay := Settle(q, 3, monsters)

	require.NotNil(t, atCompletion)
	assert.Equal(t, int64(1800), atCompletion.XP.TotalXP)
	assert.Equal(t, int64(600), atCompletion.Share)
	assert.Equal(t, atCompletion.XP.TotalXP, onRedisplay.XP.TotalXP)
	assert.Equal(t, atCompletion.Share, onRedisplay.Share)
	assert.Equal(t, atCompletion.Participants, onRedisplay.Participants)
}

func TestShareXP(t *testing.T) {
	assert.Equal(t, int64(1200), ShareXP(3600, 3))
	// Остаток от деления не распределяется.
	assert.Equal(t, int64(1233), ShareXP(3700, 3))
	assert.Equal(t, int64(0), ShareXP(3600, 0))
	assert.Equal(t, int64(3600), ShareXP(3600, 1))
}
