// Package players управляет игроками — владельцами персонажей.
// models.go описывает структуру данных игрока.
package players

import "time"

// Player представляет игрока в базе данных.
// Создаётся лениво при первом событии с участием пользователя.
type Player struct {
	UserID            int64      `db:"user_id"`             // Telegram user ID (уникальный)
	Username          string     `db:"username"`            // @username (может быть пустым)
	FirstName         string     `db:"first_name"`          // Имя пользователя
	LastName          string     `db:"last_name"`           // Фамилия (может быть пустой)
	Timezone          string     `db:"timezone"`            // IANA-зона для дневных сбросов (по умолчанию UTC)
	LastXPReset       *time.Time `db:"last_xp_reset"`       // Дата последнего сброса дневных лимитов (в зоне игрока)
	ActiveCharacterID *int64     `db:"active_character_id"` // Текущий активный персонаж (0 или 1)
	IsGM              bool       `db:"is_gm"`               // Флаг ведущего: может вести квесты и выдавать опыт
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// DisplayName возвращает отображаемое имя игрока.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}
