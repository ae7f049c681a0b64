// Package quests управляет квестами: участники, ведущие, монстры
// и расчёт опыта за завершённый квест.
package quests

import "time"

// Статусы квеста. Завершённый квест заморожен: состав участников,
// ведущих и монстров больше не меняется.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Quest представляет квест в базе данных.
type Quest struct {
	ID           int64      `db:"id"`
	ChatID       int64      `db:"chat_id"`       // Чат сообщества
	Name         string     `db:"name"`          // Название, уникально среди активных квестов чата
	QuestType    string     `db:"quest_type"`    // Произвольный тип: ваншот, кампания...
	LevelBracket string     `db:"level_bracket"` // Диапазон уровней, например "3-5"; пусто — без ограничений
	StartDate    time.Time  `db:"start_date"`
	EndDate      *time.Time `db:"end_date"`
	Status       string     `db:"status"`
	CreatedBy    int64      `db:"created_by"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Participant — персонаж, записанный в квест. Уровень и опыт
// на момент записи снимаются для истории.
type Participant struct {
	QuestID       int64  `db:"quest_id"`
	CharacterID   int64  `db:"character_id"`
	CharacterName string `db:"character_name"`
	OwnerID       int64  `db:"owner_id"`
	StartingLevel int    `db:"starting_level"`
	StartingXP    int64  `db:"starting_xp"`
}

// DM — ведущий квеста.
type DM struct {
	QuestID   int64 `db:"quest_id"`
	UserID    int64 `db:"user_id"`
	IsPrimary bool  `db:"is_primary"`
}

// Monster — запись о побеждённых монстрах квеста.
// CR хранится строкой: дробные классы ("1/8", "1/4", "1/2")
// не выражаются числом.
type Monster struct {
	QuestID int64   `db:"quest_id"`
	CR      string  `db:"cr"`
	Name    *string `db:"monster_name"`
	Count   int     `db:"count"`
}

// Settlement — итог завершения квеста.
type Settlement struct {
	Quest        *Quest
	XP           *QuestXP // Расчёт по таблице CR
	Participants int
	Share        int64 // Доля каждого участника (целочисленное деление)
}
