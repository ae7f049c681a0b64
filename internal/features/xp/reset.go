package xp

import (
	"time"

	"rolevik.ru/xp-bot/internal/common"
)

// NeedsReset проверяет, пора ли обнулять дневные счётчики игрока.
//
// Дата последнего сброса хранится как календарный день, «сегодня»
// определяется в зоне игрока. Незнакомая зона откатывается на UTC
// и не блокирует начисление.
func NeedsReset(lastReset *time.Time, tz string, now time.Time) bool {
	if lastReset == nil {
		return true
	}

	today := now.In(common.UserLocation(tz))
	return !common.SameDate(*lastReset, today)
}
