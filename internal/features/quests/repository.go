package quests

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rolevik.ru/xp-bot/internal/common"
)

const questColumns = `id, chat_id, name, quest_type, level_bracket,
	start_date, end_date, status, created_by, created_at, updated_at`

// Repository предоставляет доступ к данным квестов.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий квестов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanQuest(row pgx.Row) (*Quest, error) {
	var q Quest
	err := row.Scan(
		&q.ID, &q.ChatID, &q.Name, &q.QuestType, &q.LevelBracket,
		&q.StartDate, &q.EndDate, &q.Status, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrQuestNotFound
		}
		return nil, fmt.Errorf("ошибка чтения квеста: %w", err)
	}
	return &q, nil
}

// Create создаёт активный квест. Название уникально среди
// активных квестов чата.
func (r *Repository) Create(ctx context.Context, chatID int64, name, questType, bracket string, createdBy int64) (*Quest, error) {
	query := `
		INSERT INTO quests (chat_id, name, quest_type, level_bracket, start_date, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), 'active', $5, NOW(), NOW())
		RETURNING ` + questColumns

	q, err := scanQuest(r.db.QueryRow(ctx, query, chatID, name, questType, bracket, createdBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrDuplicateQuest
		}
		return nil, fmt.Errorf("ошибка создания квеста: %w", err)
	}

	return q, nil
}

// GetActiveByName ищет активный квест чата по названию
// без учёта регистра.
func (r *Repository) GetActiveByName(ctx context.Context, chatID int64, name string) (*Quest, error) {
	query := `
		SELECT ` + questColumns + `
		FROM quests
		WHERE chat_id = $1 AND LOWER(name) = LOWER($2) AND status = 'active'
	`
	return scanQuest(r.db.QueryRow(ctx, query, chatID, name))
}

// GetCompletedByName ищет завершённый квест чата по названию.
// Название среди завершённых не уникально — берётся последний.
func (r *Repository) GetCompletedByName(ctx context.Context, chatID int64, name string) (*Quest, error) {
	query := `
		SELECT ` + questColumns + `
		FROM quests
		WHERE chat_id = $1 AND LOWER(name) = LOWER($2) AND status = 'completed'
		ORDER BY end_date DESC NULLS LAST
		LIMIT 1
	`
	return scanQuest(r.db.QueryRow(ctx, query, chatID, name))
}

// ListByStatus возвращает квесты чата с данным статусом,
// новые первыми.
func (r *Repository) ListByStatus(ctx context.Context, chatID int64, status string, limit int) ([]*Quest, error) {
	query := `
		SELECT ` + questColumns + `
		FROM quests
		WHERE chat_id = $1 AND status = $2
		ORDER BY start_date DESC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, chatID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка квестов: %w", err)
	}
	defer rows.Close()

	var quests []*Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, q)
	}

	return quests, rows.Err()
}

// AddParticipant записывает персонажа в квест со снимком
// текущего уровня и опыта. Повторная запись безвредна.
func (r *Repository) AddParticipant(ctx context.Context, questID, characterID int64, startingLevel int, startingXP int64) error {
	query := `
		INSERT INTO quest_participants (quest_id, character_id, starting_level, starting_xp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (quest_id, character_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, questID, characterID, startingLevel, startingXP); err != nil {
		return fmt.Errorf("ошибка записи участника квеста: %w", err)
	}

	return nil
}

// RemoveParticipant убирает персонажа из квеста.
func (r *Repository) RemoveParticipant(ctx context.Context, questID, characterID int64) error {
	query := `DELETE FROM quest_participants WHERE quest_id = $1 AND character_id = $2`

	tag, err := r.db.Exec(ctx, query, questID, characterID)
	if err != nil {
		return fmt.Errorf("ошибка удаления участника квеста: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCharacterNotFound
	}

	return nil
}

// Participants возвращает участников квеста с именами
// персонажей и владельцами.
func (r *Repository) Participants(ctx context.Context, questID int64) ([]Participant, error) {
	query := `
		SELECT p.quest_id, p.character_id, c.name, c.user_id, p.starting_level, p.starting_xp
		FROM quest_participants p
		JOIN characters c ON c.id = p.character_id
		WHERE p.quest_id = $1
		ORDER BY c.name
	`

	rows, err := r.db.Query(ctx, query, questID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения участников квеста: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.QuestID, &p.CharacterID, &p.CharacterName, &p.OwnerID, &p.StartingLevel, &p.StartingXP); err != nil {
			return nil, fmt.Errorf("ошибка чтения участника квеста: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// AddDM записывает ведущего квеста. Первый ведущий — основной.
func (r *Repository) AddDM(ctx context.Context, questID, userID int64) error {
	query := `
		INSERT INTO quest_dms (quest_id, user_id, is_primary)
		VALUES ($1, $2, NOT EXISTS (SELECT 1 FROM quest_dms WHERE quest_id = $1))
		ON CONFLICT (quest_id, user_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, questID, userID); err != nil {
		return fmt.Errorf("ошибка записи ведущего квеста: %w", err)
	}

	return nil
}

// DMs возвращает ведущих квеста, основной первым.
func (r *Repository) DMs(ctx context.Context, questID int64) ([]DM, error) {
	query := `
		SELECT quest_id, user_id, is_primary
		FROM quest_dms
		WHERE quest_id = $1
		ORDER BY is_primary DESC, user_id
	`

	rows, err := r.db.Query(ctx, query, questID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ведущих квеста: %w", err)
	}
	defer rows.Close()

	var dms []DM
	for rows.Next() {
		var dm DM
		if err := rows.Scan(&dm.QuestID, &dm.UserID, &dm.IsPrimary); err != nil {
			return nil, fmt.Errorf("ошибка чтения ведущего квеста: %w", err)
		}
		dms = append(dms, dm)
	}

	return dms, rows.Err()
}

// AddMonster записывает побеждённых монстров квеста.
func (r *Repository) AddMonster(ctx context.Context, questID int64, cr string, name *string, count int) error {
	query := `
		INSERT INTO quest_monsters (quest_id, cr, monster_name, count)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query, questID, cr, name, count); err != nil {
		return fmt.Errorf("ошибка записи монстра квеста: %w", err)
	}

	return nil
}

// Monsters возвращает монстров квеста в порядке добавления.
func (r *Repository) Monsters(ctx context.Context, questID int64) ([]Monster, error) {
	query := `
		SELECT quest_id, cr, monster_name, count
		FROM quest_monsters
		WHERE quest_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, questID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения монстров квеста: %w", err)
	}
	defer rows.Close()

	var monsters []Monster
	for rows.Next() {
		var m Monster
		if err := rows.Scan(&m.QuestID, &m.CR, &m.Name, &m.Count); err != nil {
			return nil, fmt.Errorf("ошибка чтения монстра квеста: %w", err)
		}
		monsters = append(monsters, m)
	}

	return monsters, rows.Err()
}

// Complete переводит квест в завершённые. Уже завершённый квест
// не трогается: статус терминальный.
func (r *Repository) Complete(ctx context.Context, questID int64) error {
	query := `
		UPDATE quests
		SET status = 'completed', end_date = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	tag, err := r.db.Exec(ctx, query, questID)
	if err != nil {
		return fmt.Errorf("ошибка завершения квеста: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrQuestCompleted
	}

	return nil
}

// Delete удаляет квест со всеми записями. Участники, ведущие
// и монстры удаляются каскадно.
func (r *Repository) Delete(ctx context.Context, questID int64) error {
	query := `DELETE FROM quests WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, questID)
	if err != nil {
		return fmt.Errorf("ошибка удаления квеста: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrQuestNotFound
	}

	return nil
}
