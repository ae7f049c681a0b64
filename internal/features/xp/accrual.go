package xp

// Rules — действующие параметры начисления опыта.
// Берутся из настроек сообщества с дефолтами из конфигурации.
type Rules struct {
	CharsPerUnit int // Символов текста на одну единицу ролевого опыта
	DailyRPCap   int // Дневной лимит единиц ролевого опыта
	HFAttemptXP  int // Опыт за саму попытку добычи
	HFSuccessXP  int // Бонус за успешную добычу
	DailyHFCap   int // Дневной лимит опыта за добычу
}

// RPDecision — результат расчёта ролевого опыта за сообщение.
type RPDecision struct {
	AwardUnits int // Единицы опыта к начислению (0 при лимите)
	NewBuffer  int // Новый остаток символов
}

// DecideRP рассчитывает начисление ролевого опыта.
//
// Символы сообщения добавляются к накопленному остатку, полные
// единицы начисляются в пределах остатка дневного лимита. Остаток
// символов всегда урезается по модулю ставки: единицы, срезанные
// лимитом, сгорают и не переносятся на следующий день.
func DecideRP(buffer, added, charsPerUnit, dailyXP, dailyCap int) RPDecision {
	if charsPerUnit <= 0 {
		charsPerUnit = 1
	}

	total := buffer + added
	units := total / charsPerUnit

	remaining := dailyCap - dailyXP
	if remaining < 0 {
		remaining = 0
	}
	if units > remaining {
		units = remaining
	}

	return RPDecision{
		AwardUnits: units,
		NewBuffer:  total % charsPerUnit,
	}
}

// DecideHF рассчитывает опыт за попытку добычи.
// Попытка и бонус за успех начисляются одним куском и вместе
// урезаются остатком дневного лимита добычи.
func DecideHF(dailyHF int, success bool, rules Rules) int {
	award := rules.HFAttemptXP
	if success {
		award += rules.HFSuccessXP
	}

	remaining := rules.DailyHFCap - dailyHF
	if remaining < 0 {
		remaining = 0
	}
	if award > remaining {
		award = remaining
	}
	if award < 0 {
		award = 0
	}

	return award
}
