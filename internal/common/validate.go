// Package common — validate.go проверяет пользовательский ввод:
// имена персонажей, суммы опыта, дневные лимиты, ссылки и часовые пояса.
// Валидация отклоняет ввод ДО любого изменения состояния.
package common

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Границы валидации. Админ-выдача может быть отрицательной
// (снятие опыта), но в разумных пределах.
const (
	MaxCharacterNameLength = 100
	MinXPGrant             = -100_000
	MaxXPGrant             = 1_000_000
	MinDailyCap            = 1
	MaxDailyCap            = 1000
	MinCharsPerXP          = 1
	MaxCharsPerXP          = 10_000
	MaxURLLength           = 2000
)

// Имя персонажа: буквы (включая кириллицу), цифры, пробелы,
// дефисы, апострофы и точки.
var characterNameRe = regexp.MustCompile(`^[\p{L}0-9\s\-'.]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Кастомное правило для имён персонажей
	_ = v.RegisterValidation("charname", func(fl validator.FieldLevel) bool {
		return characterNameRe.MatchString(fl.Field().String())
	})
	return v
}

// CharacterInput — данные для создания персонажа.
type CharacterInput struct {
	Name     string `validate:"required,min=1,max=100,charname"`
	ImageURL string `validate:"omitempty,http_url,max=2000"`
	SheetURL string `validate:"omitempty,http_url,max=2000"`
}

// ValidateCharacterInput проверяет имя персонажа и необязательные ссылки.
// Возвращает конкретную причину отказа.
func ValidateCharacterInput(in CharacterInput) error {
	if err := validate.Struct(in); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return fmt.Errorf("некорректные данные персонажа: %w", err)
		}
		switch errs[0].Field() {
		case "Name":
			return fmt.Errorf("%w: только буквы, цифры, пробелы, дефисы, апострофы и точки, не длиннее %d символов", ErrInvalidCharacterName, MaxCharacterNameLength)
		case "ImageURL", "SheetURL":
			return fmt.Errorf("%w: должна начинаться с http(s):// и быть короче %d символов", ErrInvalidURL, MaxURLLength)
		}
		return fmt.Errorf("некорректные данные персонажа: %w", err)
	}
	return nil
}

// ValidateXPAmount проверяет сумму опыта.
// allowNegative разрешает отрицательные суммы (снятие опыта админом).
func ValidateXPAmount(amount int64, allowNegative bool) error {
	if !allowNegative && amount < 0 {
		return ErrNegativeXP
	}
	if amount < MinXPGrant || amount > MaxXPGrant {
		return fmt.Errorf("%w: от %d до %d", ErrInvalidAmount, MinXPGrant, MaxXPGrant)
	}
	return nil
}

// ValidateDailyCap проверяет значение дневного лимита.
func ValidateDailyCap(cap int) error {
	if cap < MinDailyCap || cap > MaxDailyCap {
		return fmt.Errorf("%w: дневной лимит от %d до %d", ErrInvalidSetting, MinDailyCap, MaxDailyCap)
	}
	return nil
}

// ValidateCharsPerXP проверяет норму символов на единицу опыта.
func ValidateCharsPerXP(chars int) error {
	if chars < MinCharsPerXP || chars > MaxCharsPerXP {
		return fmt.Errorf("%w: символов на единицу опыта от %d до %d", ErrInvalidSetting, MinCharsPerXP, MaxCharsPerXP)
	}
	return nil
}

// ValidateTimezone проверяет имя IANA-зоны.
// Здесь ошибка НЕ глушится: игрок явно вводит зону и должен
// узнать, что она не распознана.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return ErrInvalidTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return ErrInvalidTimezone
	}
	return nil
}
