// Package admin реализует админ-панель в личных сообщениях с
// парольной аутентификацией. Отсюда выдаются права ведущего и
// выполняется необратимое удаление данных игрока.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// Session — активная сессия администратора.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от перебора пароля).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// State — состояние диалога с администратором. Опасные действия
// выполняются по шагам: команда → подтверждение.
type State struct {
	State     string      // Текущее состояние
	Data      interface{} // Контекст шага (например, user_id для удаления)
	ExpiresAt time.Time   // Когда состояние истекает (5 минут)
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                      // Нет активного состояния
	StateAwaitingPassword = "awaiting_password"     // Ждём пароль
	StateAwaitingPurge    = "awaiting_purge_answer" // Ждём подтверждение удаления игрока
)
