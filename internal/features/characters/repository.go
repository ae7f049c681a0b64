package characters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rolevik.ru/xp-bot/internal/common"
)

const characterColumns = `id, user_id, name, xp, daily_xp, daily_hf, char_buffer,
	retired, image_url, sheet_url, created_at, updated_at`

// Repository предоставляет доступ к данным персонажей.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий персонажей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanCharacter(row pgx.Row) (*Character, error) {
	var c Character
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.XP, &c.DailyXP, &c.DailyHF, &c.CharBuffer,
		&c.Retired, &c.ImageURL, &c.SheetURL, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("ошибка чтения персонажа: %w", err)
	}
	return &c, nil
}

// Create создаёт персонажа с заданным стартовым опытом.
// Если у игрока ещё нет активного персонажа, новый становится активным.
func (r *Repository) Create(ctx context.Context, userID int64, name string, startXP int64, imageURL, sheetURL *string) (*Character, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO characters (user_id, name, xp, image_url, sheet_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + characterColumns

	c, err := scanCharacter(tx.QueryRow(ctx, insert, userID, name, startXP, imageURL, sheetURL))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrDuplicateCharacter
		}
		return nil, fmt.Errorf("ошибка создания персонажа: %w", err)
	}

	// Первый персонаж игрока становится активным автоматически.
	setActive := `
		UPDATE players SET active_character_id = $2, updated_at = NOW()
		WHERE user_id = $1 AND active_character_id IS NULL
	`
	if _, err := tx.Exec(ctx, setActive, userID, c.ID); err != nil {
		return nil, fmt.Errorf("ошибка назначения активного персонажа: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return c, nil
}

// GetByID возвращает персонажа по внутреннему идентификатору.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	return scanCharacter(r.db.QueryRow(ctx, query, id))
}

// GetByName ищет действующего персонажа игрока по точному имени
// без учёта регистра.
func (r *Repository) GetByName(ctx context.Context, userID int64, name string) (*Character, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND NOT retired
	`
	return scanCharacter(r.db.QueryRow(ctx, query, userID, name))
}

// GetActive возвращает активного персонажа игрока.
func (r *Repository) GetActive(ctx context.Context, userID int64) (*Character, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE id = (SELECT active_character_id FROM players WHERE user_id = $1)
		  AND NOT retired
	`

	c, err := scanCharacter(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, common.ErrCharacterNotFound) {
			return nil, common.ErrNoActiveCharacter
		}
		return nil, err
	}

	return c, nil
}

// List возвращает персонажей игрока, по умолчанию без отставных.
func (r *Repository) List(ctx context.Context, userID int64, includeRetired bool) ([]*Character, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE user_id = $1 AND (NOT retired OR $2)
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID, includeRetired)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка персонажей: %w", err)
	}
	defer rows.Close()

	var result []*Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	return result, rows.Err()
}

// Names возвращает имена действующих персонажей игрока.
// Используется для нечёткого поиска по опечаткам.
func (r *Repository) Names(ctx context.Context, userID int64) ([]string, error) {
	query := `SELECT name FROM characters WHERE user_id = $1 AND NOT retired ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения имён персонажей: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка чтения имени персонажа: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// FindAllByName ищет действующих персонажей с данным именем
// среди всех игроков сообщества.
func (r *Repository) FindAllByName(ctx context.Context, name string) ([]Match, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE LOWER(name) = LOWER($1) AND NOT retired
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска персонажа по имени: %w", err)
	}
	defer rows.Close()

	var result []Match
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, Match{Character: c, OwnerID: c.UserID})
	}

	return result, rows.Err()
}

// Retire отправляет персонажа в отставку. Имя освобождается
// для новых персонажей, накопленный опыт сохраняется.
// Если персонаж был активным, активность снимается.
func (r *Repository) Retire(ctx context.Context, userID int64, characterID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	retire := `
		UPDATE characters SET retired = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT retired
	`
	tag, err := tx.Exec(ctx, retire, characterID, userID)
	if err != nil {
		return fmt.Errorf("ошибка отставки персонажа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCharacterNotFound
	}

	clearActive := `
		UPDATE players SET active_character_id = NULL, updated_at = NOW()
		WHERE user_id = $1 AND active_character_id = $2
	`
	if _, err := tx.Exec(ctx, clearActive, userID, characterID); err != nil {
		return fmt.Errorf("ошибка снятия активности: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// SetActiveCharacter делает персонажа активным для его владельца.
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

// UpdateLinks обновляет ссылки на арт и лист персонажа.
func (r *Repository) UpdateLinks(ctx context.Context, characterID int64, imageURL, sheetURL *string) error {
	query := `
		UPDATE characters
		SET image_url = COALESCE($2, image_url),
		    sheet_url = COALESCE($3, sheet_url),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, characterID, imageURL, sheetURL)
	if err != nil {
		return fmt.Errorf("ошибка обновления ссылок персонажа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCharacterNotFound
	}

	return nil
}

// TopByXP возвращает лучших действующих персонажей по опыту.
// Используется в ежедневной сводке.
func (r *Repository) TopByXP(ctx context.Context, limit int) ([]*Character, error) {
	query := `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE NOT retired
		ORDER BY xp DESC, created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения таблицы лидеров: %w", err)
	}
	defer rows.Close()

	var result []*Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	return result, rows.Err()
}
