// Package xp — handlers.go обрабатывает команды:
// !перс (карточка), !персонажи (список с уровнями),
// !запрос (запрос опыта), !выдать (выдача ведущим), !топ.
package xp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/features/characters"
	"rolevik.ru/xp-bot/internal/features/settings"
)

// Handler обрабатывает команды опыта.
type Handler struct {
	service    *Service            // Движок начисления
	characters *characters.Service // Поиск персонажей по имени
	settings   *settings.Service   // Служебный чат для запросов
	bot        *tgbotapi.BotAPI    // API Telegram для отправки ответов
}

// NewHandler создаёт новый обработчик команд опыта.
func NewHandler(service *Service, charService *characters.Service, settingsService *settings.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:    service,
		characters: charService,
		settings:   settingsService,
		bot:        bot,
	}
}

// HandleCard обрабатывает команду !перс [имя] — карточка персонажа.
// Без аргументов показывает активного персонажа.
//
// Формат ответа:
//
//	🎭 Арагорн — 5 уровень
//	Опыт: 7 200 (700 / 7 500 до следующего уровня)
func (h *Handler) HandleCard(ctx context.Context, chatID int64, userID int64, args []string) {
	var c *characters.Character
	var err error

	if len(args) == 0 {
		c, err = h.characters.Active(ctx, userID)
	} else {
		c, err = h.characters.Find(ctx, userID, strings.Join(args, " "))
	}
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNoActiveCharacter):
			h.sendMessage(chatID, "❌ У тебя нет активного персонажа. Создай его: !создать Имя")
		case errors.Is(err, common.ErrCharacterNotFound):
			h.sendMessage(chatID, "❌ Персонаж не найден")
		default:
			log.WithError(err).Error("Ошибка получения карточки персонажа")
			h.sendMessage(chatID, "❌ Ошибка получения карточки персонажа")
		}
		return
	}

	card := formatCard(c)
	if grants, err := h.service.RecentGrants(ctx, c.ID, 3); err == nil && len(grants) > 0 {
		card += "Последние выдачи:\n"
		for _, g := range grants {
			line := fmt.Sprintf("  %s — %s", common.FormatXPDelta(g.Amount), common.FormatDate(g.CreatedAt))
			if g.Memo != nil {
				line += " (" + *g.Memo + ")"
			}
			card += line + "\n"
		}
	}
	h.sendMessage(chatID, card)
}

// HandleList обрабатывает команду !персонажи — список персонажей
// игрока с уровнями и отметкой активного.
func (h *Handler) HandleList(ctx context.Context, chatID int64, userID int64) {
	list, err := h.characters.List(ctx, userID, false)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка персонажей")
		h.sendMessage(chatID, "❌ Ошибка получения списка персонажей")
		return
	}

	if len(list) == 0 {
		h.sendMessage(chatID, "У тебя пока нет персонажей. Создай первого: !создать Имя")
		return
	}

	active, _ := h.characters.Active(ctx, userID)

	var sb strings.Builder
	sb.WriteString("🎭 Твои персонажи:\n")
	for _, c := range list {
		level, _, _ := LevelAndProgress(c.XP)
		marker := "▫️"
		if active != nil && active.ID == c.ID {
			marker = "▶️"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d уровень, %s\n",
			marker, c.Name, level, common.FormatXP(c.XP)))
	}

	h.sendMessage(chatID, sb.String())
}

// HandleTop обрабатывает команду !топ — лучшие персонажи сообщества.
func (h *Handler) HandleTop(ctx context.Context, chatID int64) {
	top, err := h.characters.TopByXP(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка получения таблицы лидеров")
		h.sendMessage(chatID, "❌ Ошибка получения таблицы лидеров")
		return
	}

	if len(top) == 0 {
		h.sendMessage(chatID, "Персонажей пока нет")
		return
	}

	h.sendMessage(chatID, FormatLeaderboard(top))
}

// HandleRequest обрабатывает команду !запрос <имя> <число> [памятка].
// Запрос уходит в служебный чат, где ведущий одобряет его
// командой !выдать.
func (h *Handler) HandleRequest(ctx context.Context, chatID int64, userID int64, userTag string, args []string) {
	name, amount, memo, ok := splitGrantArgs(args)
	if !ok {
		h.sendMessage(chatID, "❌ Формат: !запрос Имя Персонажа <число> [за что]")
		return
	}

	if err := common.ValidateXPAmount(amount, false); err != nil {
		h.sendMessage(chatID, "❌ "+err.Error())
		return
	}

	c, err := h.characters.Find(ctx, userID, name)
	if err != nil {
		h.sendMessage(chatID, "❌ Персонаж не найден")
		return
	}

	cfg, err := h.settings.Config(ctx)
	if err != nil || cfg.LogChatID == nil {
		h.sendMessage(chatID, "❌ Служебный чат не назначен, запросы опыта недоступны")
		return
	}

	text := fmt.Sprintf("📨 Запрос опыта: %s просит %s для «%s»",
		userTag, common.FormatXP(amount), c.Name)
	if memo != "" {
		text += "\nОснование: " + memo
	}
	text += fmt.Sprintf("\nОдобрить: !выдать %s %d", c.Name, amount)

	h.sendMessage(*cfg.LogChatID, text)
	h.sendMessage(chatID, "✅ Запрос отправлен ведущим")
}

// HandleGrant обрабатывает команду !выдать <имя> <число> [памятка].
// Доступ проверяет маршрутизатор. Имя ищется среди персонажей всех
// игроков, неоднозначность снимается упоминанием владельца.
func (h *Handler) HandleGrant(ctx context.Context, chatID int64, grantedBy int64, args []string, mentionedOwners map[int64]bool) {
	name, amount, memo, ok := splitGrantArgs(args)
	if !ok {
		h.sendMessage(chatID, "❌ Формат: !выдать Имя Персонажа <число> [памятка]")
		return
	}

	m, err := h.characters.Resolve(ctx, name, mentionedOwners)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrCharacterNotFound):
			h.sendMessage(chatID, "❌ Персонаж не найден")
		case errors.Is(err, common.ErrCharacterAmbiguous):
			h.sendMessage(chatID, "❌ Персонажей с таким именем несколько — упомяни владельца: !выдать Имя 100 @игрок")
		default:
			log.WithError(err).Error("Ошибка поиска персонажа для выдачи")
			h.sendMessage(chatID, "❌ Ошибка поиска персонажа")
		}
		return
	}

	res, err := h.service.Grant(ctx, m.Character.ID, m.Character.Name, amount, grantedBy, memo)
	if err != nil {
		if common.IsValidationError(err) {
			h.sendMessage(chatID, "❌ "+err.Error())
		} else {
			log.WithError(err).Error("Ошибка выдачи опыта")
			h.sendMessage(chatID, "❌ Ошибка выдачи опыта, попробуйте позже")
		}
		return
	}

	text := fmt.Sprintf("✅ «%s»: %s, всего %s",
		res.CharacterName, common.FormatXPDelta(res.Awarded), common.FormatNumber(res.NewXP))
	if res.LeveledUp {
		text += fmt.Sprintf("\n🎉 Новый уровень: %d!", res.NewLevel)
	}
	h.sendMessage(chatID, text)
}

// AnnounceLevelUp отправляет поздравление с новым уровнем.
// Вызывается из цикла бота после фоновых начислений.
func (h *Handler) AnnounceLevelUp(chatID int64, res *AwardResult) {
	if res == nil || !res.LeveledUp {
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🎉 «%s» достигает %d уровня!",
		res.CharacterName, res.NewLevel))
}

// splitGrantArgs разбирает аргументы вида <имя...> <число> [памятка...].
// Имя может состоять из нескольких слов, числом считается первый
// токен после имени, который парсится как целое.
func splitGrantArgs(args []string) (name string, amount int64, memo string, ok bool) {
	for i := 1; i < len(args); i++ {
		n, err := strconv.ParseInt(args[i], 10, 64)
		if err != nil {
			continue
		}
		name = strings.Join(args[:i], " ")
		memo = strings.Join(args[i+1:], " ")
		// Упоминания владельца в хвосте — не памятка.
		memo = strings.TrimSpace(stripMentions(memo))
		return name, n, memo, true
	}
	return "", 0, "", false
}

// stripMentions убирает @упоминания из строки.
func stripMentions(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if strings.HasPrefix(w, "@") {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// formatCard собирает текст карточки персонажа.
func formatCard(c *characters.Character) string {
	level, progress, required := LevelAndProgress(c.XP)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎭 %s — %d уровень\n", c.Name, level))
	if progress != nil && required != nil {
		sb.WriteString(fmt.Sprintf("Опыт: %s (%s / %s до следующего уровня)\n",
			common.FormatNumber(c.XP), common.FormatNumber(*progress), common.FormatNumber(*required)))
	} else {
		sb.WriteString(fmt.Sprintf("Опыт: %s (максимальный уровень)\n", common.FormatNumber(c.XP)))
	}
	sb.WriteString(fmt.Sprintf("За сегодня: %d ед. ролевого опыта, %d за добычу\n", c.DailyXP, c.DailyHF))
	if c.SheetURL != nil {
		sb.WriteString("Лист: " + *c.SheetURL + "\n")
	}
	if c.ImageURL != nil {
		sb.WriteString("Арт: " + *c.ImageURL + "\n")
	}

	return sb.String()
}

// FormatLeaderboard собирает текст таблицы лидеров.
// Используется и командой !топ, и ежедневной сводкой.
func FormatLeaderboard(top []*characters.Character) string {
	var sb strings.Builder
	sb.WriteString("🏆 Лучшие персонажи:\n")
	for i, c := range top {
		level, _, _ := LevelAndProgress(c.XP)
		sb.WriteString(fmt.Sprintf("%d. %s — %d уровень, %s\n",
			i+1, c.Name, level, common.FormatXP(c.XP)))
	}
	return sb.String()
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
