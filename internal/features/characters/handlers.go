// Package characters — handlers.go обрабатывает команды:
// !создать, !активный, !отставка. Карточка и список персонажей
// живут в пакете xp, потому что показывают уровни.
package characters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Handler обрабатывает команды персонажей.
type Handler struct {
	service *Service         // Сервис персонажей
	bot     *tgbotapi.BotAPI // API Telegram для отправки ответов
}

// NewHandler создаёт новый обработчик команд персонажей.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// parseCreateArgs разбирает аргументы !создать: хвостовые http-ссылки
// отделяются от имени, последний оставшийся токен-число считается
// стартовым опытом. Одинокое число остаётся именем.
func parseCreateArgs(args []string) (name string, startXP int64, imageURL, sheetURL *string) {
	var urls []string
	for len(args) > 0 && strings.HasPrefix(args[len(args)-1], "http") {
		urls = append([]string{args[len(args)-1]}, urls...)
		args = args[:len(args)-1]
	}

	switch len(urls) {
	case 1:
		imageURL = &urls[0]
	case 2:
		imageURL, sheetURL = &urls[0], &urls[1]
	}

	if len(args) > 1 {
		if n, err := strconv.ParseInt(args[len(args)-1], 10, 64); err == nil {
			startXP = n
			args = args[:len(args)-1]
		}
	}

	name = strings.TrimSpace(strings.Join(args, " "))
	return name, startXP, imageURL, sheetURL
}

// HandleCreate обрабатывает команду !создать <имя>.
// Имя может состоять из нескольких слов, после него можно указать
// стартовый опыт числом. Ссылки на арт и лист передаются последними
// аргументами, если начинаются с http.
//
// Формат: !создать Имя Персонажа [опыт] [ссылка на арт] [ссылка на лист]
func (h *Handler) HandleCreate(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: !создать Имя Персонажа [опыт] [ссылка на арт] [ссылка на лист]")
		return
	}

	name, startXP, imageURL, sheetURL := parseCreateArgs(args)
	if name == "" {
		h.sendMessage(chatID, "❌ Укажи имя персонажа")
		return
	}

	c, err := h.service.Create(ctx, userID, name, startXP, imageURL, sheetURL)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateCharacter):
			h.sendMessage(chatID, fmt.Sprintf("❌ Персонаж «%s» у тебя уже есть", name))
		case errors.Is(err, common.ErrInvalidCharacterName):
			h.sendMessage(chatID, "❌ Недопустимое имя: до 100 символов, буквы, цифры, пробелы, дефисы и апострофы")
		case errors.Is(err, common.ErrInvalidURL):
			h.sendMessage(chatID, "❌ Ссылка должна быть корректным http(s)-адресом до 2000 символов")
		case errors.Is(err, common.ErrNegativeXP):
			h.sendMessage(chatID, "❌ Стартовый опыт не может быть отрицательным")
		default:
			log.WithError(err).Error("Ошибка создания персонажа")
			h.sendMessage(chatID, "❌ Ошибка создания персонажа")
		}
		return
	}

	text := fmt.Sprintf("✅ Персонаж «%s» создан", c.Name)
	if c.XP > 0 {
		text += fmt.Sprintf(" со стартовым опытом %s", common.FormatNumber(c.XP))
	}
	h.sendMessage(chatID, text)
}

// HandleLinks обрабатывает команду !ссылки <имя> <арт> [лист].
// Арт и лист — http-ссылки в конце команды, имя может состоять
// из нескольких слов. Пустая ссылка не затирает сохранённую.
func (h *Handler) HandleLinks(ctx context.Context, chatID int64, userID int64, args []string) {
	var urls []string
	for len(args) > 0 && strings.HasPrefix(args[len(args)-1], "http") {
		urls = append([]string{args[len(args)-1]}, urls...)
		args = args[:len(args)-1]
	}

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" || len(urls) == 0 || len(urls) > 2 {
		h.sendMessage(chatID, "❌ Формат: !ссылки Имя Персонажа <ссылка на арт> [ссылка на лист]")
		return
	}

	var imageURL, sheetURL *string
	imageURL = &urls[0]
	if len(urls) == 2 {
		sheetURL = &urls[1]
	}

	c, err := h.service.UpdateLinks(ctx, userID, name, imageURL, sheetURL)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrCharacterNotFound):
			h.sendMessage(chatID, "❌ Персонаж не найден")
		case errors.Is(err, common.ErrInvalidURL):
			h.sendMessage(chatID, "❌ Ссылка должна быть корректным http(s)-адресом до 2000 символов")
		default:
			log.WithError(err).Error("Ошибка обновления ссылок персонажа")
			h.sendMessage(chatID, "❌ Ошибка обновления ссылок")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Ссылки персонажа «%s» обновлены", c.Name))
}

// HandleSetActive обрабатывает команду !активный <имя>.
// Именно активный персонаж копит ролевой опыт за сообщения.
func (h *Handler) HandleSetActive(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: !активный Имя Персонажа")
		return
	}

	c, err := h.service.SetActive(ctx, userID, strings.Join(args, " "))
	if err != nil {
		if errors.Is(err, common.ErrCharacterNotFound) {
			h.sendMessage(chatID, "❌ Персонаж не найден")
		} else {
			log.WithError(err).Error("Ошибка смены активного персонажа")
			h.sendMessage(chatID, "❌ Ошибка смены активного персонажа")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Теперь активный персонаж — «%s»", c.Name))
}

// HandleRetire обрабатывает команду !отставка <имя>.
// Опыт персонажа сохраняется, имя освобождается.
func (h *Handler) HandleRetire(ctx context.Context, chatID int64, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: !отставка Имя Персонажа")
		return
	}

	c, err := h.service.Retire(ctx, userID, strings.Join(args, " "))
	if err != nil {
		if errors.Is(err, common.ErrCharacterNotFound) {
			h.sendMessage(chatID, "❌ Персонаж не найден")
		} else {
			log.WithError(err).Error("Ошибка отставки персонажа")
			h.sendMessage(chatID, "❌ Ошибка отставки персонажа")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🕯 Персонаж «%s» отправлен в отставку. Накоплено %s",
		c.Name, common.FormatXP(c.XP)))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
