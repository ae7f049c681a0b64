// Package filters решает, какие чаты и сообщения бот вообще обрабатывает.
package filters

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/features/players"
	"rolevik.ru/xp-bot/internal/features/settings"
)

// ChatFilter пропускает сообщения из основного чата сообщества,
// из отслеживаемых ролевых и скриптовых чатов и из личек участников.
// Отслеживаемые чаты живут в БД и правятся командами, поэтому фильтр
// ходит в settings при каждой проверке — запрос дешёвый, одна строка.
type ChatFilter struct {
	communityChatID int64
	playerService   *players.Service
	settingsService *settings.Service
	bot             *tgbotapi.BotAPI
}

func NewChatFilter(communityChatID int64, playerService *players.Service, settingsService *settings.Service, bot *tgbotapi.BotAPI) *ChatFilter {
	return &ChatFilter{
		communityChatID: communityChatID,
		playerService:   playerService,
		settingsService: settingsService,
		bot:             bot,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (сервисное сообщение?)")
		return false
	}
	if f.communityChatID == 0 {
		log.WithField("component", "ChatFilter").Error("communityChatID равен 0 (ошибка конфигурации)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":         "ChatFilter",
		"chat_id":           chatID,
		"chat_type":         message.Chat.Type,
		"user_id":           userID,
		"community_chat_id": f.communityChatID,
	})

	// 1) Основной чат сообщества
	if chatID == f.communityChatID {
		logger.Debug("allow: community chat")
		return true
	}

	// 2) Отслеживаемые чаты (ролевые, скриптовые, лог)
	cfg, err := f.settingsService.Config(ctx)
	if err != nil {
		logger.WithError(err).Error("не удалось прочитать настройки чатов")
	} else if cfg.TracksRP(chatID) || cfg.TracksHF(chatID) ||
		(cfg.LogChatID != nil && *cfg.LogChatID == chatID) {
		logger.Debug("allow: tracked chat")
		return true
	}

	// 3) Личка: сначала быстро по БД
	if message.Chat.IsPrivate() {
		_, err := f.playerService.GetPlayer(ctx, userID)
		if err == nil {
			logger.Debug("allow: private (db player)")
			return true
		}
		if !errors.Is(err, common.ErrPlayerNotFound) {
			logger.WithError(err).Error("player check failed (db)")
			return false
		}

		// 3.1) БД не знает пользователя: проверяем членство через Telegram API
		cm, err := f.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: f.communityChatID,
				UserID: userID,
			},
		})
		if err != nil {
			logger.WithError(err).Error("member check failed (telegram GetChatMember)")
			return false
		}

		switch cm.Status {
		case "creator", "administrator", "member", "restricted":
			if _, err := f.playerService.EnsurePlayer(
				ctx, userID,
				message.From.UserName,
				message.From.FirstName,
				message.From.LastName,
			); err != nil {
				logger.WithError(err).Warn("не удалось дозаписать игрока в БД (пропускаем всё равно)")
			}
			logger.WithField("tg_status", cm.Status).Info("allow: private (telegram member, backfilled)")
			return true

		default:
			logger.WithField("tg_status", cm.Status).Info("deny: private (not a chat member)")
			msg := tgbotapi.NewMessage(chatID, "❌ Бот работает только для участников сообщества")
			if _, sendErr := f.bot.Send(msg); sendErr != nil {
				logger.WithError(sendErr).Warn("failed to send deny message")
			}
			return false
		}
	}

	// 4) Остальные чаты игнорируем
	logger.Info("deny: not tracked and not private")
	return false
}
