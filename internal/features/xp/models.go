package xp

import (
	"context"
	"time"
)

// PlayerState — данные игрока, нужные движку начисления.
type PlayerState struct {
	UserID    int64
	Timezone  string
	LastReset *time.Time
}

// CharacterState — счётчики персонажа, нужные движку начисления.
type CharacterState struct {
	ID         int64
	UserID     int64
	Name       string
	XP         int64
	DailyXP    int
	DailyHF    int
	CharBuffer int
}

// Grant — запись журнала выдач опыта. Журнал только пополняется.
type Grant struct {
	ID          int64
	CharacterID int64
	GrantedBy   int64
	Amount      int64
	Memo        *string
	CreatedAt   time.Time
}

// AwardResult — итог начисления опыта с переходом уровней.
type AwardResult struct {
	CharacterName string
	Awarded       int64 // Фактически начислено (может быть меньше запрошенного из-за лимитов)
	OldXP         int64
	NewXP         int64
	OldLevel      int
	NewLevel      int
	LeveledUp     bool
}

// RPOutcome — итог начисления ролевого опыта внутри транзакции.
type RPOutcome struct {
	CharacterName string
	AwardUnits    int
	OldXP         int64
	NewXP         int64
	NewBuffer     int
}

// Store — хранилище движка начисления. Все изменения счётчиков
// выполняются относительными дельтами на стороне Postgres, решения
// о лимитах принимаются под блокировкой строки персонажа.
type Store interface {
	// Player возвращает данные игрока для проверки дневного сброса.
	Player(ctx context.Context, userID int64) (*PlayerState, error)
	// ResetDaily обнуляет дневные счётчики всех персонажей игрока
	// и фиксирует дату сброса одной транзакцией.
	ResetDaily(ctx context.Context, userID int64, localDate time.Time) error
	// AccrueRP начисляет ролевой опыт активному персонажу игрока
	// за added символов текста.
	AccrueRP(ctx context.Context, userID int64, added int, rules Rules) (*RPOutcome, error)
	// AccrueHF начисляет опыт за попытку добычи персонажу charID.
	AccrueHF(ctx context.Context, charID int64, success bool, rules Rules) (awarded int, oldXP, newXP int64, err error)
	// AwardXP — примитив прямой выдачи: одна атомарная относительная
	// дельта, опыт не опускается ниже нуля; возвращает старое и новое
	// значение из того же запроса.
	AwardXP(ctx context.Context, charID int64, delta int64) (oldXP, newXP int64, err error)
	// LogGrant добавляет запись в журнал выдач (только добавление).
	LogGrant(ctx context.Context, characterID, grantedBy int64, amount int64, memo string) error
	// GrantHistory возвращает последние выдачи по персонажу,
	// новые первыми.
	GrantHistory(ctx context.Context, characterID int64, limit int) ([]Grant, error)
}

// result собирает AwardResult из старого и нового значения опыта.
func result(name string, awarded, oldXP, newXP int64) *AwardResult {
	oldLevel := LevelForXP(oldXP)
	newLevel := LevelForXP(newXP)

	return &AwardResult{
		CharacterName: name,
		Awarded:       awarded,
		OldXP:         oldXP,
		NewXP:         newXP,
		OldLevel:      oldLevel,
		NewLevel:      newLevel,
		LeveledUp:     newLevel > oldLevel,
	}
}
