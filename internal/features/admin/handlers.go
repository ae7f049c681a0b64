// Package admin — handlers.go обрабатывает админ-панель в личных
// сообщениях. Поток: аутентификация → команды панели → пошаговое
// подтверждение опасных действий.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/features/players"
)

// Handler обрабатывает админ-команды в личных сообщениях.
type Handler struct {
	service       *Service
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		playerService: playerService,
		bot:           bot,
	}
}

const panelHelp = `Панель администратора:
гм @игрок + — выдать права ведущего
гм @игрок - — снять права ведущего
чистка <user_id> — удалить игрока со всеми персонажами (необратимо)
выход — завершить сессию`

// HandleAdminMessage обрабатывает сообщение администратора в личке.
// Возвращает true, если сообщение поглощено панелью. Команды бота
// (!перс и прочие) панель не трогает — они уходят в общий маршрутизатор.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	state := h.service.GetState(userID)

	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	isLogin := strings.HasPrefix(lower, "/login")

	// Обычные команды в личке панель не перехватывает.
	if !isLogin && (strings.HasPrefix(lower, "!") || strings.HasPrefix(lower, ".") || strings.HasPrefix(lower, "/")) {
		return false
	}

	if !h.service.HasActiveSession(ctx, userID) {
		if !isLogin {
			return false
		}
		if password := strings.TrimSpace(trimmed[len("/login"):]); password != "" {
			// Пароль передан прямо в команде, регистр важен.
			h.handlePasswordInput(ctx, chatID, userID, password)
			return true
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	if state != nil && state.State == StateAwaitingPurge {
		h.handlePurgeConfirm(ctx, chatID, userID, text)
		return true
	}

	args := strings.Fields(text)
	if len(args) == 0 {
		h.sendMessage(chatID, panelHelp)
		return true
	}

	switch strings.ToLower(args[0]) {
	case "гм":
		h.handleGM(ctx, chatID, args[1:])
	case "чистка":
		h.handlePurgeRequest(ctx, chatID, userID, args[1:])
	case "выход":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка завершения сессии")
		}
		h.sendMessage(chatID, "👋 Сессия завершена")
	default:
		h.sendMessage(chatID, panelHelp)
	}

	return true
}

// handlePasswordInput проверяет введённый пароль.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	h.service.ClearState(userID)

	err := h.service.VerifyPassword(ctx, userID, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "⛔ Слишком много попыток. Подождите час")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Неверный пароль. Напишите любое сообщение, чтобы попробовать снова")
		default:
			log.WithError(err).Error("Ошибка проверки пароля")
			h.sendMessage(chatID, "❌ Ошибка проверки пароля, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, "✅ Доступ открыт на 24 часа\n\n"+panelHelp)
}

// handleGM выдаёт или снимает права ведущего: гм @игрок +|-.
func (h *Handler) handleGM(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 || (args[1] != "+" && args[1] != "-") {
		h.sendMessage(chatID, "❌ Формат: гм @игрок +|-")
		return
	}

	p, err := h.playerService.GetByUsername(ctx, args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Игрок не найден. Он должен хотя бы раз написать в чате сообщества")
		return
	}

	isGM := args[1] == "+"
	if err := h.playerService.SetGM(ctx, p.UserID, isGM); err != nil {
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

// handlePurgeRequest запускает удаление игрока с подтверждением.
func (h *Handler) handlePurgeRequest(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "❌ Формат: чистка <user_id>")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ user_id должен быть числом")
		return
	}

	p, err := h.playerService.GetPlayer(ctx, targetID)
	if err != nil {
		h.sendMessage(chatID, "❌ Игрок не найден")
		return
	}

	h.service.SetState(userID, StateAwaitingPurge, targetID)
	h.sendMessage(chatID, fmt.Sprintf(
		"⚠️ Удалить игрока %s (%d) со всеми персонажами и журналом выдач?\nЭто необратимо. Ответьте «да» для подтверждения",
		p.DisplayName(), targetID))
}

// handlePurgeConfirm выполняет удаление после подтверждения.
func (h *Handler) handlePurgeConfirm(ctx context.Context, chatID int64, userID int64, answer string) {
	state := h.service.GetState(userID)
	h.service.ClearState(userID)

	if state == nil {
		h.sendMessage(chatID, "❌ Подтверждение истекло, начните заново")
		return
	}

	if strings.ToLower(strings.TrimSpace(answer)) != "да" {
		h.sendMessage(chatID, "Отменено")
		return
	}

	targetID, ok := state.Data.(int64)
	if !ok {
		h.sendMessage(chatID, "❌ Подтверждение истекло, начните заново")
		return
	}

	if err := h.playerService.Purge(ctx, targetID); err != nil {
		log.WithError(err).Error("Ошибка удаления игрока")
		h.sendMessage(chatID, "❌ Ошибка удаления игрока")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🗑 Игрок %d и все его данные удалены", targetID))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
