// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с часовыми поясами игроков, русская плюрализация,
// форматирование чисел и дат.
package common

import (
	"fmt"
	"math"
	"time"
)

// UserLocation возвращает часовой пояс игрока по имени IANA-зоны.
// Если строка пустая или зона не загружается — возвращает UTC.
// Плохой часовой пояс не должен блокировать начисление опыта,
// поэтому ошибка здесь намеренно глушится.
func UserLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDate возвращает календарную дату момента t в зоне игрока
// (время обнулено, локация сохранена).
func LocalDate(t time.Time, tz string) time.Time {
	local := t.In(UserLocation(tz))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// SameDate сравнивает два момента как календарные даты (год, месяц, день).
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PluralizeXP возвращает правильную форму слова «очко опыта» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "очко опыта" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "очка опыта"
//   - Остальные случаи → "очков опыта" (0, 5-20, 25-30, 100, ...)
func PluralizeXP(n int64) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "очко опыта"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "очка опыта"
	}
	return "очков опыта"
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "день"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "дня"
	}
	return "дней"
}

// PluralizeMonsters возвращает правильную форму слова «монстр».
func PluralizeMonsters(n int) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "монстр"
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "монстра"
	}
	return "монстров"
}

// FormatXP форматирует сумму опыта в читабельную строку.
// Пример: FormatXP(150) → "150 очков опыта"
func FormatXP(amount int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(amount), PluralizeXP(amount))
}

// FormatXPDelta создаёт строку вида "+100 очков опыта" или "-50 очков опыта".
func FormatXPDelta(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%s %s", FormatNumber(amount), PluralizeXP(amount))
	}
	return fmt.Sprintf("-%s %s", FormatNumber(-amount), PluralizeXP(amount))
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	rest := n / 1000
	last := n % 1000

	if rest > 0 {
		return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
	}
	return fmt.Sprintf("%d", last)
}

// FormatDate форматирует дату в формат "02.01.2006".
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в зоне игрока.
func FormatDateTime(t time.Time, tz string) string {
	return t.In(UserLocation(tz)).Format("02.01.2006 15:04")
}
