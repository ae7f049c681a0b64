// Package characters управляет персонажами игроков:
// создание, карточки, активность, отставка и поиск по имени.
package characters

import "time"

// Character представляет персонажа в базе данных.
type Character struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`     // Владелец персонажа
	Name       string    `db:"name"`        // Имя, уникальное среди действующих персонажей игрока
	XP         int64     `db:"xp"`          // Накопленный опыт (всегда >= 0)
	DailyXP    int       `db:"daily_xp"`    // Единицы ролевого опыта, начисленные за текущие сутки
	DailyHF    int       `db:"daily_hf"`    // Опыт за добычу, начисленный за текущие сутки
	CharBuffer int       `db:"char_buffer"` // Остаток символов, не дотянувший до полной единицы
	Retired    bool      `db:"retired"`     // Персонаж в отставке: скрыт и не копит опыт
	ImageURL   *string   `db:"image_url"`   // Ссылка на арт персонажа
	SheetURL   *string   `db:"sheet_url"`   // Ссылка на лист персонажа
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Match связывает найденного персонажа с его владельцем.
// Используется при поиске по имени среди всех игроков.
type Match struct {
	Character *Character
	OwnerID   int64
}
