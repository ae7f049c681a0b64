// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/bot"
	"rolevik.ru/xp-bot/internal/bot/filters"
	"rolevik.ru/xp-bot/internal/config"
	"rolevik.ru/xp-bot/internal/db/postgres"
	"rolevik.ru/xp-bot/internal/features/admin"
	"rolevik.ru/xp-bot/internal/features/characters"
	"rolevik.ru/xp-bot/internal/features/players"
	"rolevik.ru/xp-bot/internal/features/quests"
	"rolevik.ru/xp-bot/internal/features/settings"
	"rolevik.ru/xp-bot/internal/features/xp"
	"rolevik.ru/xp-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	playerRepo := players.NewRepository(pool)
	characterRepo := characters.NewRepository(pool)
	xpRepo := xp.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool, cfg)
	questRepo := quests.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	playerService := players.NewService(playerRepo, cfg)
	characterService := characters.NewService(characterRepo)
	xpService := xp.NewService(xpRepo, cfg.DBRetryAttempts, cfg.DBRetryBaseWait)
	settingsService := settings.NewService(settingsRepo, cfg.CommunityChatID)
	questService := quests.NewService(questRepo, characterService, xpService)
	adminService := admin.NewService(adminRepo, cfg)

	// === 5. Обработчики ===
	playerHandler := players.NewHandler(playerService, botAPI)
	characterHandler := characters.NewHandler(characterService, botAPI)
	xpHandler := xp.NewHandler(xpService, characterService, settingsService, botAPI)
	settingsHandler := settings.NewHandler(settingsService, botAPI)
	questHandler := quests.NewHandler(questService, botAPI)
	adminHandler := admin.NewHandler(adminService, playerService, botAPI)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.CommunityChatID, playerService, settingsService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		playerService, playerHandler,
		characterService, characterHandler,
		xpService, xpHandler,
		settingsService, settingsHandler,
		questHandler,
		adminHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	var scheduler *jobs.Scheduler
	if cfg.FeatureDigestEnabled {
		scheduler = jobs.NewScheduler(cfg.AppTimezone, characterService, settingsService, func(chatID int64, text string) {
			msg := tgbotapi.NewMessage(chatID, text)
			if _, err := botAPI.Send(msg); err != nil {
				log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки дайджеста")
			}
		})
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Characters},
		{3, migration003ChatConfig},
		{4, migration004Grants},
		{5, migration005Quests},
		{6, migration006Admin},
		{7, migration007PurgeCascade},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
    last_xp_reset DATE,
    active_character_id BIGINT,
    is_gm BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_user_id ON players(user_id);
CREATE INDEX IF NOT EXISTS idx_players_username ON players(LOWER(username));
`

var migration002Characters = `
CREATE TABLE IF NOT EXISTS characters (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    xp BIGINT NOT NULL DEFAULT 0,
    daily_xp INTEGER NOT NULL DEFAULT 0,
    daily_hf INTEGER NOT NULL DEFAULT 0,
    char_buffer INTEGER NOT NULL DEFAULT 0,
    retired BOOLEAN NOT NULL DEFAULT FALSE,
    image_url TEXT,
    sheet_url TEXT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_characters_user_id ON characters(user_id);
CREATE INDEX IF NOT EXISTS idx_characters_name ON characters(LOWER(name));
CREATE UNIQUE INDEX IF NOT EXISTS uq_characters_user_name
    ON characters(user_id, LOWER(name)) WHERE NOT retired;
ALTER TABLE players
    ADD CONSTRAINT fk_players_active_character
    FOREIGN KEY (active_character_id) REFERENCES characters(id)
    ON DELETE SET NULL;
`

var migration003ChatConfig = `
CREATE TABLE IF NOT EXISTS chat_config (
    chat_id BIGINT PRIMARY KEY,
    rp_chats BIGINT[] NOT NULL DEFAULT '{}',
    hf_chats BIGINT[] NOT NULL DEFAULT '{}',
    char_per_xp INTEGER NOT NULL,
    daily_rp_cap INTEGER NOT NULL,
    hf_attempt_xp INTEGER NOT NULL,
    hf_success_xp INTEGER NOT NULL,
    daily_hf_cap INTEGER NOT NULL,
    log_chat_id BIGINT,
    updated_at TIMESTAMP DEFAULT NOW()
);
`

var migration004Grants = `
CREATE TABLE IF NOT EXISTS xp_grants (
    id BIGSERIAL PRIMARY KEY,
    character_id BIGINT NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
    granted_by BIGINT NOT NULL,
    amount BIGINT NOT NULL,
    memo TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_xp_grants_character ON xp_grants(character_id, created_at DESC);
`

var migration005Quests = `
CREATE TABLE IF NOT EXISTS quests (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    name VARCHAR(255) NOT NULL,
    quest_type VARCHAR(64),
    level_bracket VARCHAR(32),
    start_date TIMESTAMP DEFAULT NOW(),
    end_date TIMESTAMP,
    status VARCHAR(32) NOT NULL DEFAULT 'active',
    created_by BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_quests_active_name
    ON quests(chat_id, LOWER(name)) WHERE status = 'active';
CREATE TABLE IF NOT EXISTS quest_participants (
    quest_id BIGINT NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
    character_id BIGINT NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
    starting_level INTEGER NOT NULL,
    starting_xp BIGINT NOT NULL,
    PRIMARY KEY (quest_id, character_id)
);
CREATE TABLE IF NOT EXISTS quest_dms (
    quest_id BIGINT NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    is_primary BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (quest_id, user_id)
);
CREATE TABLE IF NOT EXISTS quest_monsters (
    id BIGSERIAL PRIMARY KEY,
    quest_id BIGINT NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
    cr VARCHAR(8) NOT NULL,
    monster_name VARCHAR(255),
    count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_quest_monsters_quest ON quest_monsters(quest_id);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time DESC);
`

// Чистка игрока должна удалять и его персонажей: без каскада
// DELETE FROM players падает на внешнем ключе characters.user_id.
var migration007PurgeCascade = `
ALTER TABLE characters DROP CONSTRAINT IF EXISTS characters_user_id_fkey;
ALTER TABLE characters
    ADD CONSTRAINT characters_user_id_fkey
    FOREIGN KEY (user_id) REFERENCES players(user_id)
    ON DELETE CASCADE;
`
