package xp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rolevik.ru/xp-bot/internal/common"
)

// Repository — реализация Store поверх Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий движка начисления.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Player возвращает данные игрока для проверки дневного сброса.
func (r *Repository) Player(ctx context.Context, userID int64) (*PlayerState, error) {
	query := `SELECT user_id, timezone, last_xp_reset FROM players WHERE user_id = $1`

	var p PlayerState
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Timezone, &p.LastReset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("ошибка получения игрока: %w", err)
	}

	return &p, nil
}

// ResetDaily обнуляет дневные счётчики всех персонажей игрока и
// фиксирует дату сброса. Обе записи уходят одной транзакцией,
// чтобы сброс нельзя было применить наполовину.
func (r *Repository) ResetDaily(ctx context.Context, userID int64, localDate time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	resetCharacters := `
		UPDATE characters
		SET daily_xp = 0, daily_hf = 0, char_buffer = 0, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := tx.Exec(ctx, resetCharacters, userID); err != nil {
		return fmt.Errorf("ошибка сброса дневных счётчиков: %w", err)
	}

	stampPlayer := `UPDATE players SET last_xp_reset = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := tx.Exec(ctx, stampPlayer, userID, localDate); err != nil {
		return fmt.Errorf("ошибка фиксации даты сброса: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// AccrueRP начисляет ролевой опыт активному персонажу игрока.
// Строка персонажа блокируется на время решения, поэтому лимит
// не пробивается даже при параллельной обработке сообщений.
func (r *Repository) AccrueRP(ctx context.Context, userID int64, added int, rules Rules) (*RPOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	lock := `
		SELECT c.id, c.name, c.xp, c.daily_xp, c.char_buffer
		FROM characters c
		JOIN players p ON p.active_character_id = c.id
		WHERE p.user_id = $1 AND NOT c.retired
		FOR UPDATE OF c
	`

	var (
		charID     int64
		name       string
		oldXP      int64
		dailyXP    int
		charBuffer int
	)
	err = tx.QueryRow(ctx, lock, userID).Scan(&charID, &name, &oldXP, &dailyXP, &charBuffer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNoActiveCharacter
		}
		return nil, fmt.Errorf("ошибка чтения активного персонажа: %w", err)
	}

	d := DecideRP(charBuffer, added, rules.CharsPerUnit, dailyXP, rules.DailyRPCap)

	update := `
		UPDATE characters
		SET xp = xp + $2, daily_xp = daily_xp + $3, char_buffer = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING xp
	`

	var newXP int64
	err = tx.QueryRow(ctx, update, charID, int64(d.AwardUnits), d.AwardUnits, d.NewBuffer).Scan(&newXP)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления ролевого опыта: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return &RPOutcome{
		CharacterName: name,
		AwardUnits:    d.AwardUnits,
		OldXP:         oldXP,
		NewXP:         newXP,
		NewBuffer:     d.NewBuffer,
	}, nil
}

// AccrueHF начисляет опыт за попытку добычи под блокировкой
// строки персонажа.
func (r *Repository) AccrueHF(ctx context.Context, charID int64, success bool, rules Rules) (int, int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	lock := `SELECT xp, daily_hf FROM characters WHERE id = $1 AND NOT retired FOR UPDATE`

	var (
		oldXP   int64
		dailyHF int
	)
	err = tx.QueryRow(ctx, lock, charID).Scan(&oldXP, &dailyHF)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, 0, common.ErrCharacterNotFound
		}
		return 0, 0, 0, fmt.Errorf("ошибка чтения персонажа: %w", err)
	}

	awarded := DecideHF(dailyHF, success, rules)

	update := `
		UPDATE characters
		SET xp = xp + $2, daily_hf = daily_hf + $3, updated_at = NOW()
		WHERE id = $1
		RETURNING xp
	`

	var newXP int64
	err = tx.QueryRow(ctx, update, charID, int64(awarded), awarded).Scan(&newXP)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка начисления опыта за добычу: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return awarded, oldXP, newXP, nil
}

// AwardXP — примитив прямой выдачи. CTE блокирует строку, применяет
// относительную дельту (не ниже нуля) и возвращает старое и новое
// значение одним запросом.
func (r *Repository) AwardXP(ctx context.Context, charID int64, delta int64) (int64, int64, error) {
	query := `
		WITH prev AS (
			SELECT id, xp FROM characters
			WHERE id = $1 AND NOT retired
			FOR UPDATE
		)
		UPDATE characters c
		SET xp = GREATEST(0, c.xp + $2), updated_at = NOW()
		FROM prev
		WHERE c.id = prev.id
		RETURNING prev.xp, c.xp
	`

	var oldXP, newXP int64
	err := r.db.QueryRow(ctx, query, charID, delta).Scan(&oldXP, &newXP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, common.ErrCharacterNotFound
		}
		return 0, 0, fmt.Errorf("ошибка выдачи опыта: %w", err)
	}

	return oldXP, newXP, nil
}

// LogGrant добавляет запись в журнал выдач.
func (r *Repository) LogGrant(ctx context.Context, characterID, grantedBy int64, amount int64, memo string) error {
	query := `
		INSERT INTO xp_grants (character_id, granted_by, amount, memo, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
	`

	_, err := r.db.Exec(ctx, query, characterID, grantedBy, amount, memo)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал выдач: %w", err)
	}

	return nil
}

// GrantHistory возвращает последние выдачи по персонажу.
func (r *Repository) GrantHistory(ctx context.Context, characterID int64, limit int) ([]Grant, error) {
	query := `
		SELECT id, character_id, granted_by, amount, memo, created_at
		FROM xp_grants
		WHERE character_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, characterID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала выдач: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.ID, &g.CharacterID, &g.GrantedBy, &g.Amount, &g.Memo, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи журнала: %w", err)
		}
		grants = append(grants, g)
	}

	return grants, rows.Err()
}
