// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает собранные сервисы, подключает обработчики и запускает polling.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/bot/filters"
	"rolevik.ru/xp-bot/internal/bot/middleware"
	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/config"
	"rolevik.ru/xp-bot/internal/features/admin"
	"rolevik.ru/xp-bot/internal/features/characters"
	"rolevik.ru/xp-bot/internal/features/players"
	"rolevik.ru/xp-bot/internal/features/quests"
	"rolevik.ru/xp-bot/internal/features/settings"
	"rolevik.ru/xp-bot/internal/features/xp"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	playerHandler    *players.Handler
	characterHandler *characters.Handler
	xpHandler        *xp.Handler
	settingsHandler  *settings.Handler
	questHandler     *quests.Handler
	adminHandler     *admin.Handler

	playerService    *players.Service
	characterService *characters.Service
	xpService        *xp.Service
	settingsService  *settings.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerService *players.Service,
	playerHandler *players.Handler,
	characterService *characters.Service,
	characterHandler *characters.Handler,
	xpService *xp.Service,
	xpHandler *xp.Handler,
	settingsService *settings.Service,
	settingsHandler *settings.Handler,
	questHandler *quests.Handler,
	adminHandler *admin.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:              api,
		cfg:              cfg,
		chatFilter:       chatFilter,
		rateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerHandler:    playerHandler,
		characterHandler: characterHandler,
		xpHandler:        xpHandler,
		settingsHandler:  settingsHandler,
		questHandler:     questHandler,
		adminHandler:     adminHandler,
		playerService:    playerService,
		characterService: characterService,
		xpService:        xpService,
		settingsService:  settingsService,
		parser:           NewCommandParser(),
		inflight:         make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message

	// Логируем входящее
	middleware.LogMessage(message)

	// Проверяем доступ (сообщество, отслеживаемые чаты, личка участника)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// Скриптовые сообщения ботов — отдельный путь: рейт-лимит и
	// регистрация игрока к ним не относятся. Telegram не отдаёт
	// обычному боту сообщения других ботов через getUpdates, поэтому
	// скрипт добычи пишет от имени канала либо входит в allowlist
	// SCRIPT_BOT_IDS.
	if message.From.IsBot {
		if !b.cfg.IsScriptBot(message.From.ID) {
			return
		}
		b.handleScriptedMessage(ctx, message)
		return
	}

	// EnsurePlayer — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if _, err := b.playerService.EnsurePlayer(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsurePlayer failed")
	}

	// В DM проверяем админ-панель
	if message.Chat.IsPrivate() && b.cfg.IsAdmin(userID) {
		if b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	// Парсим команду
	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      args,
	}).Debug("parsed command")

	if isCommand {
		// Rate limiting распространяется только на команды
		if !b.rateLimiter.Allow(userID) {
			log.WithField("user_id", userID).Debug("rate limited")
			return
		}
		b.routeCommand(ctx, message, cmd, args)
		return
	}

	// Не команда: в отслеживаемом ролевом чате длина сообщения идёт в копилку
	cfg, err := b.settingsService.Config(ctx)
	if err != nil {
		log.WithError(err).Error("не удалось прочитать настройки начисления")
		return
	}
	if !cfg.TracksRP(chatID) {
		return
	}

	res, err := b.xpService.AccrueRP(ctx, userID, message.Text, rulesFrom(cfg))
	if err != nil {
		if !errors.Is(err, common.ErrNoActiveCharacter) {
			log.WithError(err).WithField("user_id", userID).Warn("начисление ролевого опыта не удалось")
		}
		return
	}
	if res != nil && res.LeveledUp {
		b.xpHandler.AnnounceLevelUp(chatID, res)
	}
}

// handleScriptedMessage обрабатывает сообщение бота-скрипта в чате добычи:
// распознаёт попытку, находит персонажа и начисляет опыт.
func (b *Bot) handleScriptedMessage(ctx context.Context, message *tgbotapi.Message) {
	if !b.cfg.FeatureHFEnabled {
		return
	}

	chatID := message.Chat.ID

	cfg, err := b.settingsService.Config(ctx)
	if err != nil {
		log.WithError(err).Error("не удалось прочитать настройки начисления")
		return
	}
	if !cfg.TracksHF(chatID) {
		return
	}

	act, ok := xp.DetectActivity(message.Text)
	if !ok {
		return
	}

	logger := log.WithFields(log.Fields{
		"chat_id":   chatID,
		"character": act.CharacterName,
		"kind":      act.Kind,
		"success":   act.Success,
	})

	match, err := b.characterService.Resolve(ctx, act.CharacterName, b.mentionedOwners(ctx, message))
	if err != nil {
		// Неоднозначность и «не найден» — не начисляем никому.
		logger.WithError(err).Warn("персонаж из скриптового сообщения не определён")
		return
	}

	res, err := b.xpService.AccrueHF(ctx, match.OwnerID, match.Character.ID, match.Character.Name, act.Success, rulesFrom(cfg))
	if err != nil {
		logger.WithError(err).Warn("начисление опыта за добычу не удалось")
		return
	}
	if res.LeveledUp {
		b.xpHandler.AnnounceLevelUp(chatID, res)
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, message *tgbotapi.Message, cmd string, args []string) {
	chatID := message.Chat.ID
	userID := message.From.ID

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start", "help", "старт", "помощь":
		b.sendMessage(chatID, helpText)

	case "login":
		if message.Chat.IsPrivate() && b.cfg.IsAdmin(userID) {
			b.adminHandler.HandleAdminMessage(ctx, chatID, userID, "/login "+strings.Join(args, " "))
		}

	// --- персонажи ---
	case "создать":
		b.characterHandler.HandleCreate(ctx, chatID, userID, args)

	case "активный":
		b.characterHandler.HandleSetActive(ctx, chatID, userID, args)

	case "отставка":
		b.characterHandler.HandleRetire(ctx, chatID, userID, args)

	case "ссылки":
		b.characterHandler.HandleLinks(ctx, chatID, userID, args)

	// --- опыт и уровни ---
	case "перс":
		b.xpHandler.HandleCard(ctx, chatID, userID, args)

	case "персонажи":
		b.xpHandler.HandleList(ctx, chatID, userID)

	case "топ":
		b.xpHandler.HandleTop(ctx, chatID)

	case "запрос":
		b.xpHandler.HandleRequest(ctx, chatID, userID, userTag(message.From), args)

	case "выдать":
		if !b.playerService.IsGM(ctx, userID) {
			b.sendMessage(chatID, "❌ Выдавать опыт могут только ведущие")
			return
		}
		b.xpHandler.HandleGrant(ctx, chatID, userID, args, b.mentionedOwners(ctx, message))

	// --- квесты ---
	case "квест":
		if !b.cfg.FeatureQuestsEnabled {
			b.sendMessage(chatID, "📜 Учёт квестов временно отключён")
			return
		}
		if !b.playerService.IsGM(ctx, userID) {
			b.sendMessage(chatID, "❌ Вести квесты могут только ведущие")
			return
		}
		b.questHandler.HandleQuest(ctx, chatID, userID, args, b.mentionedOwners(ctx, message))

	// --- игрок ---
	case "таймзона":
		b.playerHandler.HandleTimezone(ctx, chatID, userID, args)

	case "гм":
		if !b.cfg.IsAdmin(userID) {
			b.sendMessage(chatID, "❌ Назначать ведущих может только администратор")
			return
		}
		b.playerHandler.HandleGM(ctx, chatID, args)

	// --- настройки (только администратор) ---
	case "лимит":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleDailyCap(ctx, chatID, args)
		}

	case "ставка":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleCharsPerXP(ctx, chatID, args)
		}

	case "охота":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleHFRates(ctx, chatID, args)
		}

	case "трекинг":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleTracking(ctx, chatID, args)
		}

	case "лог":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleLogChat(ctx, chatID, args)
		}

	case "настройки":
		if b.requireAdmin(chatID, userID) {
			b.settingsHandler.HandleShow(ctx, chatID)
		}
	}
}

func (b *Bot) requireAdmin(chatID, userID int64) bool {
	if b.cfg.IsAdmin(userID) {
		return true
	}
	b.sendMessage(chatID, "❌ Команда доступна только администратору")
	return false
}

// mentionedOwners собирает user_id игроков, упомянутых в сообщении.
// text_mention несёт User прямо в entity, обычный mention резолвим
// по username через БД. Неизвестные @упоминания просто пропускаем.
func (b *Bot) mentionedOwners(ctx context.Context, message *tgbotapi.Message) map[int64]bool {
	owners := make(map[int64]bool)

	for _, ent := range message.Entities {
		if ent.Type == "text_mention" && ent.User != nil {
			owners[ent.User.ID] = true
		}
	}

	for _, word := range strings.Fields(message.Text) {
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			continue
		}
		p, err := b.playerService.GetByUsername(ctx, word)
		if err != nil {
			if !errors.Is(err, common.ErrPlayerNotFound) {
				log.WithError(err).WithField("mention", word).Warn("поиск игрока по упоминанию не удался")
			}
			continue
		}
		owners[p.UserID] = true
	}

	return owners
}

// rulesFrom переводит настройки чата в правила начисления.
func rulesFrom(cfg *settings.ChatConfig) xp.Rules {
	return xp.Rules{
		CharsPerUnit: cfg.CharsPerXP,
		DailyRPCap:   cfg.DailyRPCap,
		HFAttemptXP:  cfg.HFAttemptXP,
		HFSuccessXP:  cfg.HFSuccessXP,
		DailyHFCap:   cfg.DailyHFCap,
	}
}

// userTag — как подписать игрока в служебных сообщениях.
func userTag(user *tgbotapi.User) string {
	if user == nil {
		return "?"
	}
	if user.UserName != "" {
		return "@" + user.UserName
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

const helpText = `Я считаю опыт персонажей. Команды:
!создать <имя> [опыт] [ссылки] — новый персонаж
!активный <имя> — сменить активного персонажа
!перс [имя] — карточка персонажа
!персонажи — список ваших персонажей
!ссылки <имя> <арт> [лист] — обновить ссылки персонажа
!топ — таблица лидеров
!запрос <имя> <сумма> [причина] — запросить опыт у ведущих
!отставка <имя> — отправить персонажа в отставку
!таймзона [зона] — ваш часовой пояс для дневных лимитов
Ведущим: !выдать, !квест. Администратору: !настройки.`

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// CommandParser парсит русские команды с префиксами ! и .
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
