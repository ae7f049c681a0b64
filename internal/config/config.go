// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
// Игровые параметры (лимиты, нормы символов) здесь только дефолтные:
// рабочие значения живут в БД и правятся командами администратора.
type Config struct {
	// --- Telegram ---
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// ID основного чата сообщества. Конфигурация трекинга в БД
	// привязана к этому чату.
	CommunityChatID int64 `envconfig:"COMMUNITY_CHAT_ID" required:"true"`
	// ID скриптовых отправителей в чате добычи. Обычный бот через
	// getUpdates чужих ботов не видит, поэтому скрипт должен писать
	// от имени канала или анонимного администратора; пустой список
	// принимает любого отправителя с флагом is_bot.
	ScriptBotIDsRaw string  `envconfig:"SCRIPT_BOT_IDS"`
	ScriptBotIDs    []int64 `envconfig:"-"` // заполним вручную

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"xp_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// Зона для фоновых задач (дайджест). Сбросы дневных лимитов
	// считаются в персональных зонах игроков, не здесь.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- XP: дефолты для новой записи конфигурации чата ---
	XPCharsPerUnit   int `envconfig:"XP_CHARS_PER_UNIT" default:"240"`
	XPDailyRPCap     int `envconfig:"XP_DAILY_RP_CAP" default:"10"`
	XPHFAttempt      int `envconfig:"XP_HF_ATTEMPT" default:"1"`
	XPHFSuccessBonus int `envconfig:"XP_HF_SUCCESS_BONUS" default:"5"`
	XPDailyHFCap     int `envconfig:"XP_DAILY_HF_CAP" default:"10"`

	// --- Retry (запросы к БД при временных сбоях) ---
	DBRetryAttempts int           `envconfig:"DB_RETRY_ATTEMPTS" default:"3"`
	DBRetryBaseWait time.Duration `envconfig:"DB_RETRY_BASE_WAIT" default:"500ms"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureHFEnabled     bool `envconfig:"FEATURE_HF_ENABLED" default:"true"`
	FeatureQuestsEnabled bool `envconfig:"FEATURE_QUESTS_ENABLED" default:"true"`
	FeatureDigestEnabled bool `envconfig:"FEATURE_DIGEST_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.CommunityChatID == 0 {
		return fmt.Errorf("COMMUNITY_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DBRetryAttempts <= 0 {
		return fmt.Errorf("DB_RETRY_ATTEMPTS должен быть > 0")
	}
	if c.XPCharsPerUnit <= 0 || c.XPDailyRPCap <= 0 || c.XPDailyHFCap <= 0 {
		return fmt.Errorf("дефолты XP должны быть положительными")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	scriptIDs, err := parseInt64CSV(cfg.ScriptBotIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("SCRIPT_BOT_IDS parse: %w", err)
	}
	cfg.ScriptBotIDs = scriptIDs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsAdmin проверяет, входит ли пользователь в список администраторов из окружения.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsScriptBot проверяет, допущен ли отправитель к скриптовому пути.
// Пустой список означает "любой отправитель-бот".
func (c *Config) IsScriptBot(userID int64) bool {
	if len(c.ScriptBotIDs) == 0 {
		return true
	}
	for _, id := range c.ScriptBotIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
