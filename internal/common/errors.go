// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки персонажей
var (
	// ErrCharacterNotFound — персонаж не найден
	ErrCharacterNotFound = errors.New("персонаж не найден")
	// ErrCharacterAmbiguous — несколько персонажей с одним именем,
	// и по упоминаниям не удалось определить владельца. Опыт НЕ начисляется.
	ErrCharacterAmbiguous = errors.New("несколько персонажей с таким именем, владелец не определён")
	// ErrDuplicateCharacter — у игрока уже есть персонаж с таким именем
	ErrDuplicateCharacter = errors.New("персонаж с таким именем уже существует")
	// ErrNoActiveCharacter — у игрока нет активного персонажа
	ErrNoActiveCharacter = errors.New("нет активного персонажа")
	// ErrCharacterRetired — персонаж отправлен в отставку
	ErrCharacterRetired = errors.New("персонаж в отставке")
)

// Ошибки игроков
var (
	// ErrPlayerNotFound — игрок не найден в базе
	ErrPlayerNotFound = errors.New("игрок не найден")
	// ErrInvalidTimezone — некорректный часовой пояс
	ErrInvalidTimezone = errors.New("некорректный часовой пояс, пример: Europe/Moscow или UTC")
)

// Ошибки начисления опыта
var (
	// ErrInvalidAmount — сумма опыта вне допустимых границ
	ErrInvalidAmount = errors.New("недопустимая сумма опыта")
	// ErrNegativeXP — отрицательный опыт там, где он запрещён
	ErrNegativeXP = errors.New("опыт не может быть отрицательным")
	// ErrInvalidCharacterName — имя не прошло проверку
	ErrInvalidCharacterName = errors.New("недопустимое имя персонажа")
	// ErrInvalidURL — ссылка не прошла проверку
	ErrInvalidURL = errors.New("некорректная ссылка")
	// ErrInvalidSetting — значение настройки вне допустимых границ
	ErrInvalidSetting = errors.New("недопустимое значение настройки")
)

// IsValidationError сообщает, что ошибка вызвана некорректным
// пользовательским вводом: её текст можно показать пользователю.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrNegativeXP, ErrInvalidCharacterName,
		ErrInvalidURL, ErrInvalidSetting, ErrInvalidTimezone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Ошибки квестов
var (
	// ErrQuestNotFound — квест не найден
	ErrQuestNotFound = errors.New("квест не найден")
	// ErrQuestCompleted — квест завершён, изменения запрещены
	ErrQuestCompleted = errors.New("квест завершён и больше не изменяется")
	// ErrDuplicateQuest — активный квест с таким именем уже есть
	ErrDuplicateQuest = errors.New("активный квест с таким именем уже существует")
	// ErrLevelBracket — уровень персонажа не попадает в диапазон квеста
	ErrLevelBracket = errors.New("уровень персонажа не подходит под диапазон квеста")
	// ErrUnknownCR — неизвестный класс опасности монстра
	ErrUnknownCR = errors.New("неизвестный класс опасности (CR)")
)

// Ошибки прав
var (
	// ErrNotGM — у пользователя нет прав ведущего/администратора
	ErrNotGM = errors.New("нужны права ведущего или администратора")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
