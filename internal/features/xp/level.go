// Package xp — ядро начисления опыта: кривая уровней, дневные
// лимиты, ролевой опыт за сообщения, опыт за добычу и ручные выдачи.
package xp

// levelThresholds — суммарный опыт, необходимый для каждого уровня.
// Индекс 0 соответствует 1 уровню. Таблица строго возрастает.
var levelThresholds = [20]int64{
	0, 300, 900, 2700, 6500,
	14000, 23000, 34000, 48000, 64000,
	85000, 100000, 120000, 140000, 165000,
	195000, 225000, 265000, 305000, 355000,
}

// MaxLevel — потолок кривой уровней.
const MaxLevel = len(levelThresholds)

// LevelForXP возвращает уровень персонажа по накопленному опыту.
// Отрицательный опыт в хранилище невозможен и трактуется как 0.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}

	level := 1
	for i := 1; i < len(levelThresholds); i++ {
		if xp < levelThresholds[i] {
			break
		}
		level = i + 1
	}

	return level
}

// LevelAndProgress возвращает уровень и прогресс до следующего:
// сколько опыта набрано внутри текущего уровня и сколько всего нужно.
// На максимальном уровне прогресса нет — оба значения nil.
func LevelAndProgress(xp int64) (int, *int64, *int64) {
	if xp < 0 {
		xp = 0
	}

	level := LevelForXP(xp)
	if level >= MaxLevel {
		return level, nil, nil
	}

	progress := xp - levelThresholds[level-1]
	required := levelThresholds[level] - levelThresholds[level-1]

	return level, &progress, &required
}
