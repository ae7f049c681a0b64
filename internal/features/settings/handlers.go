// Package settings — handlers.go обрабатывает админские команды
// настройки: !лимит, !ставка, !охота, !трекинг, !лог.
// Права проверяет маршрутизатор бота.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Handler обрабатывает команды настроек.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик команд настроек.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleDailyCap обрабатывает команду !лимит <n> — дневной лимит
// единиц ролевого опыта.
func (h *Handler) HandleDailyCap(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "❌ Формат: !лимит <число>")
		return
	}

	cap, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Лимит должен быть числом")
		return
	}

	if err := h.service.SetDailyRPCap(ctx, cap); err != nil {
		h.replySettingError(chatID, err, "Ошибка изменения лимита")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Дневной лимит ролевого опыта: %d", cap))
}

// HandleCharsPerXP обрабатывает команду !ставка <chars> — сколько
// символов текста стоит одна единица опыта.
func (h *Handler) HandleCharsPerXP(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "❌ Формат: !ставка <символов на единицу>")
		return
	}

	chars, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Ставка должна быть числом")
		return
	}

	if err := h.service.SetCharsPerXP(ctx, chars); err != nil {
		h.replySettingError(chatID, err, "Ошибка изменения ставки")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Ставка: %d символов за единицу опыта", chars))
}

// HandleHFRates обрабатывает команду !охота <попытка> <успех> <лимит>.
func (h *Handler) HandleHFRates(ctx context.Context, chatID int64, args []string) {
	if len(args) != 3 {
		h.sendMessage(chatID, "❌ Формат: !охота <за попытку> <за успех> <дневной лимит>")
		return
	}

	var nums [3]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			h.sendMessage(chatID, "❌ Все три параметра должны быть числами")
			return
		}
		nums[i] = n
	}

	if err := h.service.SetHFRates(ctx, nums[0], nums[1], nums[2]); err != nil {
		h.replySettingError(chatID, err, "Ошибка изменения параметров добычи")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Добыча: %d за попытку, +%d за успех, лимит %d в день",
		nums[0], nums[1], nums[2]))
}

// HandleTracking обрабатывает команду !трекинг рп|хф + |-.
// Включает или выключает отслеживание текущего чата.
//
// Формат: !трекинг рп +  (включить ролевой опыт здесь)
//
//	!трекинг хф -  (выключить добычу здесь)
func (h *Handler) HandleTracking(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 || (args[1] != "+" && args[1] != "-") {
		h.sendMessage(chatID, "❌ Формат: !трекинг рп|хф +|-")
		return
	}

	kind := strings.ToLower(args[0])
	enable := args[1] == "+"

	if err := h.service.TrackChat(ctx, kind, chatID, enable); err != nil {
		h.replySettingError(chatID, err, "Ошибка изменения отслеживания")
		return
	}

	state := "выключено"
	if enable {
		state = "включено"
	}
	what := "Начисление ролевого опыта"
	if kind == TrackHF {
		what = "Отслеживание добычи"
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ %s в этом чате %s", what, state))
}

// HandleLogChat обрабатывает команду !лог — назначает текущий чат
// служебным (сводки, запросы опыта). !лог - отключает.
func (h *Handler) HandleLogChat(ctx context.Context, chatID int64, args []string) {
	var target *int64
	if len(args) == 0 || args[0] != "-" {
		target = &chatID
	}

	if err := h.service.SetLogChat(ctx, target); err != nil {
		h.replySettingError(chatID, err, "Ошибка назначения служебного чата")
		return
	}

	if target == nil {
		h.sendMessage(chatID, "✅ Служебный чат отключён")
	} else {
		h.sendMessage(chatID, "✅ Этот чат назначен служебным")
	}
}

// HandleShow обрабатывает команду !настройки — сводка текущих
// параметров начисления.
func (h *Handler) HandleShow(ctx context.Context, chatID int64) {
	cfg, err := h.service.Config(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения настроек")
		h.sendMessage(chatID, "❌ Ошибка чтения настроек")
		return
	}

	var sb strings.Builder
	sb.WriteString("⚙️ Настройки начисления:\n")
	sb.WriteString(fmt.Sprintf("Ставка: %d символов за единицу опыта\n", cfg.CharsPerXP))
	sb.WriteString(fmt.Sprintf("Дневной лимит ролевого опыта: %d\n", cfg.DailyRPCap))
	sb.WriteString(fmt.Sprintf("Добыча: %d за попытку, +%d за успех, лимит %d\n",
		cfg.HFAttemptXP, cfg.HFSuccessXP, cfg.DailyHFCap))
	sb.WriteString(fmt.Sprintf("Чатов с ролевым опытом: %d, с добычей: %d\n",
		len(cfg.RPChats), len(cfg.HFChats)))
	if cfg.LogChatID != nil {
		sb.WriteString("Служебный чат назначен\n")
	} else {
		sb.WriteString("Служебный чат не назначен\n")
	}

	h.sendMessage(chatID, sb.String())
}

// replySettingError переводит ошибки валидации в понятный ответ.
func (h *Handler) replySettingError(chatID int64, err error, logMsg string) {
	switch {
	case common.IsValidationError(err):
		h.sendMessage(chatID, "❌ "+err.Error())
	default:
		log.WithError(err).Error(logMsg)
		h.sendMessage(chatID, "❌ "+logMsg)
	}
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
