package players

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rolevik.ru/xp-bot/internal/common"
)

// Repository предоставляет доступ к данным игроков.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий игроков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Ensure регистрирует игрока при первом появлении и обновляет
// его имя/username при каждом последующем событии.
func (r *Repository) Ensure(ctx context.Context, userID int64, username, firstName, lastName string) (*Player, error) {
	query := `
		INSERT INTO players (user_id, username, first_name, last_name, timezone, last_xp_reset, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'UTC', CURRENT_DATE, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, userID, username, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации игрока: %w", err)
	}

	return r.GetByUserID(ctx, userID)
}

// GetByUserID возвращает игрока по его Telegram ID.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	query := `
		SELECT user_id, username, first_name, last_name, timezone, last_xp_reset,
		       active_character_id, is_gm, created_at, updated_at
		FROM players
		WHERE user_id = $1
	`

	var p Player
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Timezone,
		&p.LastXPReset, &p.ActiveCharacterID, &p.IsGM, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}

	return &p, nil
}

// GetByUsername ищет игрока по @username (без учёта регистра).
// Используется при разборе упоминаний в сообщениях.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Player, error) {
	username = strings.TrimPrefix(username, "@")

	query := `
		SELECT user_id, username, first_name, last_name, timezone, last_xp_reset,
		       active_character_id, is_gm, created_at, updated_at
		FROM players
		WHERE LOWER(username) = LOWER($1)
	`

	var p Player
	err := r.db.QueryRow(ctx, query, username).Scan(
		&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Timezone,
		&p.LastXPReset, &p.ActiveCharacterID, &p.IsGM, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка поиска игрока по username: %w", err)
	}

	return &p, nil
}

// SetTimezone сохраняет часовой пояс игрока.
func (r *Repository) SetTimezone(ctx context.Context, userID int64, tz string) error {
	query := `UPDATE players SET timezone = $2, updated_at = NOW() WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, tz)
	if err != nil {
		return fmt.Errorf("ошибка сохранения часового пояса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}

	return nil
}

// SetActiveCharacter устанавливает активного персонажа игрока.
// nil снимает активность.
func (r *Repository) SetActiveCharacter(ctx context.Context, userID int64, characterID *int64) error {
	query := `UPDATE players SET active_character_id = $2, updated_at = NOW() WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, characterID)
	if err != nil {
		return fmt.Errorf("ошибка смены активного персонажа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}

	return nil
}

// SetGM выставляет или снимает флаг ведущего.
func (r *Repository) SetGM(ctx context.Context, userID int64, isGM bool) error {
	query := `UPDATE players SET is_gm = $2, updated_at = NOW() WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID, isGM)
	if err != nil {
		return fmt.Errorf("ошибка смены флага ведущего: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}

	return nil
}

// UpdateLastReset фиксирует дату последнего сброса дневных лимитов.
func (r *Repository) UpdateLastReset(ctx context.Context, userID int64, date time.Time) error {
	query := `UPDATE players SET last_xp_reset = $2, updated_at = NOW() WHERE user_id = $1`

	_, err := r.db.Exec(ctx, query, userID, date)
	if err != nil {
		return fmt.Errorf("ошибка обновления даты сброса: %w", err)
	}

	return nil
}

// HardDelete полностью удаляет игрока и все связанные данные.
// Персонажи и журнал выдач удаляются каскадно.
func (r *Repository) HardDelete(ctx context.Context, userID int64) error {
	query := `DELETE FROM players WHERE user_id = $1`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления игрока: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPlayerNotFound
	}

	return nil
}
