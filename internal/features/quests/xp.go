package quests

import (
	"fmt"

	"rolevik.ru/xp-bot/internal/common"
)

// crXPTable — опыт за монстра по классу опасности (D&D 5e).
// Ключи — строки: дробные CR не выражаются числом.
var crXPTable = map[string]int64{
	"0":   0,
	"1/8": 25,
	"1/4": 50,
	"1/2": 100,
	"1":   200,
	"2":   450,
	"3":   700,
	"4":   1100,
	"5":   1800,
	"6":   2300,
	"7":   2900,
	"8":   3900,
	"9":   5000,
	"10":  5900,
	"11":  7200,
	"12":  8400,
	"13":  10000,
	"14":  11500,
	"15":  13000,
	"16":  15000,
	"17":  18000,
	"18":  20000,
	"19":  22000,
	"20":  25000,
	"21":  33000,
	"22":  41000,
	"23":  50000,
	"24":  62000,
	"25":  75000,
	"26":  90000,
	"27":  105000,
	"28":  120000,
	"29":  135000,
	"30":  155000,
}

// XPForCR возвращает опыт за одного монстра данного класса опасности.
func XPForCR(cr string) (int64, error) {
	xp, ok := crXPTable[cr]
	if !ok {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownCR, cr)
	}
	return xp, nil
}

// BreakdownEntry — строка разбивки расчёта опыта за квест.
type BreakdownEntry struct {
	CR       string
	Count    int
	XPEach   int64
	Subtotal int64
	Err      error // Неизвестный CR: строка не участвует в сумме
}

// QuestXP — расчёт опыта за квест по списку монстров.
type QuestXP struct {
	TotalXP      int64
	MonsterCount int
	Breakdown    []BreakdownEntry
}

// CalculateQuestXP считает суммарный опыт за монстров квеста.
// Неизвестный CR не прерывает расчёт: строка попадает в разбивку
// с ошибкой, остальные монстры считаются как обычно.
func CalculateQuestXP(monsters []Monster) *QuestXP {
	result := &QuestXP{}

	for _, m := range monsters {
		count := m.Count
		if count < 1 {
			count = 1
		}

		entry := BreakdownEntry{CR: m.CR, Count: count}

		xp, err := XPForCR(m.CR)
		if err != nil {
			entry.Err = err
			result.Breakdown = append(result.Breakdown, entry)
			continue
		}

		entry.XPEach = xp
		entry.Subtotal = xp * int64(count)
		result.TotalXP += entry.Subtotal
		result.MonsterCount += count
		result.Breakdown = append(result.Breakdown, entry)
	}

	return result
}

// ShareXP делит опыт квеста поровну между участниками.
// Деление целочисленное, остаток не распределяется.
// Без участников доля равна нулю.
func ShareXP(total int64, participants int) int64 {
	if participants <= 0 {
		return 0
	}
	return total / int64(participants)
}

// Settle собирает итог квеста из его состава. Расчёт чистый:
// по замороженным строкам завершённого квеста он всегда
// воспроизводит тот же итог, что был выдан при завершении.
func Settle(q *Quest, participantCount int, monsters []Monster) *Settlement {
	questXP := CalculateQuestXP(monsters)
	return &Settlement{
		Quest:        q,
		XP:           questXP,
		Participants: participantCount,
		Share:        ShareXP(questXP.TotalXP, participantCount),
	}
}
