// Package players — handlers.go обрабатывает команды:
// !таймзона (личный часовой пояс), !гм (права ведущего, для админов).
package players

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Handler обрабатывает команды игроков.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик команд игроков.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleTimezone обрабатывает команду !таймзона <IANA-зона>.
// Часовой пояс определяет, когда обнуляются дневные лимиты игрока.
//
// Формат: !таймзона Europe/Moscow
func (h *Handler) HandleTimezone(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) == 0 {
		p, err := h.service.GetPlayer(ctx, userID)
		if err != nil {
			h.sendMessage(chatID, "❌ Формат: !таймзона Europe/Moscow")
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("🕐 Твой часовой пояс: %s (сейчас %s)",
			p.Timezone, common.FormatDateTime(time.Now(), p.Timezone)))
		return
	}

	tz := args[0]
	if err := h.service.SetTimezone(ctx, userID, tz); err != nil {
		if errors.Is(err, common.ErrInvalidTimezone) {
			h.sendMessage(chatID, "❌ Зона не распознана. Пример: !таймзона Europe/Moscow")
		} else {
			log.WithError(err).Error("Ошибка смены часового пояса")
			h.sendMessage(chatID, "❌ Ошибка смены часового пояса")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Часовой пояс: %s. Дневные лимиты обнуляются в твою полночь", tz))
}

// HandleGM обрабатывает команду !гм @игрок +|-.
// Доступ (только администраторы) проверяет маршрутизатор.
func (h *Handler) HandleGM(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 || (args[1] != "+" && args[1] != "-") {
		h.sendMessage(chatID, "❌ Формат: !гм @игрок +|-")
		return
	}

	p, err := h.service.GetByUsername(ctx, strings.TrimPrefix(args[0], "@"))
	if err != nil {
		h.sendMessage(chatID, "❌ Игрок не найден")
		return
	}

	isGM := args[1] == "+"
	if err := h.service.SetGM(ctx, p.UserID, isGM); err != nil {
		log.WithError(err).Error("Ошибка смены флага ведущего")
		h.sendMessage(chatID, "❌ Ошибка смены прав")
		return
	}

	if isGM {
		h.sendMessage(chatID, fmt.Sprintf("✅ %s теперь ведущий", p.DisplayName()))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("✅ %s больше не ведущий", p.DisplayName()))
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
