package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rolevik.ru/xp-bot/internal/config"
)

// Repository предоставляет доступ к настройкам сообщества.
type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config // Дефолты для ленивого создания строки
}

// NewRepository создаёт новый репозиторий настроек.
func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// ensure лениво создаёт строку настроек с дефолтами из конфигурации.
func (r *Repository) ensure(ctx context.Context, chatID int64) error {
	query := `
		INSERT INTO chat_config (chat_id, rp_chats, hf_chats, char_per_xp, daily_rp_cap,
		                         hf_attempt_xp, hf_success_xp, daily_hf_cap, updated_at)
		VALUES ($1, '{}', '{}', $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (chat_id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query, chatID,
		r.cfg.XPCharsPerUnit, r.cfg.XPDailyRPCap,
		r.cfg.XPHFAttempt, r.cfg.XPHFSuccessBonus, r.cfg.XPDailyHFCap)
	if err != nil {
		return fmt.Errorf("ошибка создания настроек сообщества: %w", err)
	}

	return nil
}

// Get возвращает настройки сообщества, создавая строку при
// первом обращении.
func (r *Repository) Get(ctx context.Context, chatID int64) (*ChatConfig, error) {
	if err := r.ensure(ctx, chatID); err != nil {
		return nil, err
	}

	query := `
		SELECT chat_id, rp_chats, hf_chats, char_per_xp, daily_rp_cap,
		       hf_attempt_xp, hf_success_xp, daily_hf_cap, log_chat_id, updated_at
		FROM chat_config
		WHERE chat_id = $1
	`

	var c ChatConfig
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&c.ChatID, &c.RPChats, &c.HFChats, &c.CharsPerXP, &c.DailyRPCap,
		&c.HFAttemptXP, &c.HFSuccessXP, &c.DailyHFCap, &c.LogChatID, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения настроек сообщества: %w", err)
	}

	return &c, nil
}

// SetCharsPerXP меняет ставку символов на единицу опыта.
func (r *Repository) SetCharsPerXP(ctx context.Context, chatID int64, chars int) error {
	return r.set(ctx, chatID, `char_per_xp`, chars)
}

// SetDailyRPCap меняет дневной лимит ролевого опыта.
func (r *Repository) SetDailyRPCap(ctx context.Context, chatID int64, cap int) error {
	return r.set(ctx, chatID, `daily_rp_cap`, cap)
}

// SetHFRates меняет параметры начисления за добычу.
func (r *Repository) SetHFRates(ctx context.Context, chatID int64, attempt, success, cap int) error {
	if err := r.ensure(ctx, chatID); err != nil {
		return err
	}

	query := `
		UPDATE chat_config
		SET hf_attempt_xp = $2, hf_success_xp = $3, daily_hf_cap = $4, updated_at = NOW()
		WHERE chat_id = $1
	`

	if _, err := r.db.Exec(ctx, query, chatID, attempt, success, cap); err != nil {
		return fmt.Errorf("ошибка сохранения параметров добычи: %w", err)
	}

	return nil
}

// SetLogChat назначает чат для сводок и запросов опыта.
func (r *Repository) SetLogChat(ctx context.Context, chatID int64, logChatID *int64) error {
	if err := r.ensure(ctx, chatID); err != nil {
		return err
	}

	query := `UPDATE chat_config SET log_chat_id = $2, updated_at = NOW() WHERE chat_id = $1`

	if _, err := r.db.Exec(ctx, query, chatID, logChatID); err != nil {
		return fmt.Errorf("ошибка назначения служебного чата: %w", err)
	}

	return nil
}

// AddTrackedChat добавляет чат в список отслеживаемых.
// column — rp_chats или hf_chats. Повторное добавление безвредно.
func (r *Repository) AddTrackedChat(ctx context.Context, chatID int64, column string, tracked int64) error {
	if err := r.ensure(ctx, chatID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE chat_config
		SET %s = array_append(%s, $2), updated_at = NOW()
		WHERE chat_id = $1 AND NOT ($2 = ANY(%s))
	`, column, column, column)

	if _, err := r.db.Exec(ctx, query, chatID, tracked); err != nil {
		return fmt.Errorf("ошибка добавления отслеживаемого чата: %w", err)
	}

	return nil
}

// RemoveTrackedChat убирает чат из списка отслеживаемых.
func (r *Repository) RemoveTrackedChat(ctx context.Context, chatID int64, column string, tracked int64) error {
	if err := r.ensure(ctx, chatID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE chat_config
		SET %s = array_remove(%s, $2), updated_at = NOW()
		WHERE chat_id = $1
	`, column, column)

	if _, err := r.db.Exec(ctx, query, chatID, tracked); err != nil {
		return fmt.Errorf("ошибка удаления отслеживаемого чата: %w", err)
	}

	return nil
}

func (r *Repository) set(ctx context.Context, chatID int64, column string, value int) error {
	if err := r.ensure(ctx, chatID); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE chat_config SET %s = $2, updated_at = NOW() WHERE chat_id = $1`, column)

	if _, err := r.db.Exec(ctx, query, chatID, value); err != nil {
		return fmt.Errorf("ошибка сохранения настройки %s: %w", column, err)
	}

	return nil
}
