package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideRP_AccumulatesBuffer(t *testing.T) {
	// 100 символов при ставке 240 — единиц нет, всё в остаток.
	d := DecideRP(0, 100, 240, 0, 10)

	assert.Equal(t, 0, d.AwardUnits)
	assert.Equal(t, 100, d.NewBuffer)
}

func TestDecideRP_FullUnits(t *testing.T) {
	// 1000 символов при ставке 240: 4 единицы, остаток 40.
	d := DecideRP(0, 1000, 240, 0, 10)

	assert.Equal(t, 4, d.AwardUnits)
	assert.Equal(t, 40, d.NewBuffer)
}

func TestDecideRP_BufferCarriesAcrossMessages(t *testing.T) {
	// Остаток 200 + 100 новых = 300: одна единица, остаток 60.
	d := DecideRP(200, 100, 240, 0, 10)

	assert.Equal(t, 1, d.AwardUnits)
	assert.Equal(t, 60, d.NewBuffer)
}

func TestDecideRP_CapTrimsAward(t *testing.T) {
	// 4 полных единицы, но до лимита остаётся одна.
	d := DecideRP(0, 1000, 240, 9, 10)

	assert.Equal(t, 1, d.AwardUnits)
	// Остаток всё равно урезается по модулю: срезанные единицы сгорают.
	assert.Equal(t, 40, d.NewBuffer)
}

func TestDecideRP_AtCapNothingAwarded(t *testing.T) {
	d := DecideRP(0, 1000, 240, 10, 10)

	assert.Equal(t, 0, d.AwardUnits)
	assert.Equal(t, 40, d.NewBuffer)
}

func TestDecideRP_OverCapClampedToZero(t *testing.T) {
	// Счётчик выше лимита (лимит понизили днём) — не уходим в минус.
	d := DecideRP(0, 1000, 240, 15, 10)

	assert.Equal(t, 0, d.AwardUnits)
}

// Последовательность сообщений не теряет и не выдумывает символы:
// сумма начисленного и остатка не превышает внесённое, а лимит
// не пробивается ни на каком шаге.
func TestDecideRP_SequenceRespectsCap(t *testing.T) {
	const charsPerUnit, dayCap = 240, 5

	buffer, dailyXP := 0, 0
	lengths := []int{500, 700, 123, 999, 480, 260, 1500}

	for _, l := range lengths {
		d := DecideRP(buffer, l, charsPerUnit, dailyXP, dayCap)

		dailyXP += d.AwardUnits
		buffer = d.NewBuffer

		assert.LessOrEqual(t, dailyXP, dayCap)
		assert.Less(t, buffer, charsPerUnit)
		assert.GreaterOrEqual(t, d.AwardUnits, 0)
	}

	assert.Equal(t, dayCap, dailyXP)
}

func TestDecideHF_AttemptOnly(t *testing.T) {
	rules := Rules{HFAttemptXP: 1, HFSuccessXP: 5, DailyHFCap: 10}

	assert.Equal(t, 1, DecideHF(0, false, rules))
}

func TestDecideHF_SuccessAddsBonus(t *testing.T) {
	rules := Rules{HFAttemptXP: 1, HFSuccessXP: 5, DailyHFCap: 10}

	assert.Equal(t, 6, DecideHF(0, true, rules))
}

func TestDecideHF_CapTrims(t *testing.T) {
	rules := Rules{HFAttemptXP: 1, HFSuccessXP: 5, DailyHFCap: 10}

	// До лимита остаётся 2: успех на 6 урезается до 2.
	assert.Equal(t, 2, DecideHF(8, true, rules))
}

func TestDecideHF_AtCapNothing(t *testing.T) {
	rules := Rules{HFAttemptXP: 1, HFSuccessXP: 5, DailyHFCap: 10}

	assert.Equal(t, 0, DecideHF(10, false, rules))
	assert.Equal(t, 0, DecideHF(12, true, rules))
}
