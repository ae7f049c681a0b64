// Package settings хранит настройки сообщества: отслеживаемые чаты,
// ставки и лимиты начисления, чат для служебных сообщений.
package settings

import (
	"slices"
	"time"
)

// ChatConfig — настройки сообщества. Строка создаётся лениво с
// дефолтами из конфигурации при первом обращении.
type ChatConfig struct {
	ChatID      int64   `db:"chat_id"`       // Основной чат сообщества
	RPChats     []int64 `db:"rp_chats"`      // Чаты, где начисляется ролевой опыт
	HFChats     []int64 `db:"hf_chats"`      // Чаты, где отслеживается добыча
	CharsPerXP  int     `db:"char_per_xp"`   // Символов на единицу ролевого опыта
	DailyRPCap  int     `db:"daily_rp_cap"`  // Дневной лимит единиц ролевого опыта
	HFAttemptXP int     `db:"hf_attempt_xp"` // Опыт за попытку добычи
	HFSuccessXP int     `db:"hf_success_xp"` // Бонус за успешную добычу
	DailyHFCap  int     `db:"daily_hf_cap"`  // Дневной лимит опыта за добычу
	LogChatID   *int64  `db:"log_chat_id"`   // Чат для сводок и запросов опыта
	UpdatedAt   time.Time
}

// TracksRP сообщает, начисляется ли в чате ролевой опыт.
func (c *ChatConfig) TracksRP(chatID int64) bool {
	return slices.Contains(c.RPChats, chatID)
}

// TracksHF сообщает, отслеживается ли в чате добыча.
func (c *ChatConfig) TracksHF(chatID int64) bool {
	return slices.Contains(c.HFChats, chatID)
}
