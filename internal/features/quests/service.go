package quests

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/features/characters"
	"rolevik.ru/xp-bot/internal/features/xp"
)

// Service содержит бизнес-логику квестов.
type Service struct {
	repo       *Repository
	characters *characters.Service
	xp         *xp.Service
}

// NewService создаёт новый сервис квестов.
func NewService(repo *Repository, charService *characters.Service, xpService *xp.Service) *Service {
	return &Service{repo: repo, characters: charService, xp: xpService}
}

// parseBracket разбирает диапазон уровней "3-5" или одиночный "5".
// Пустая строка — без ограничений.
func parseBracket(bracket string) (int, int, error) {
	if bracket == "" {
		return 1, xp.MaxLevel, nil
	}

	parts := strings.SplitN(bracket, "-", 2)
	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: не разобран диапазон %q", common.ErrLevelBracket, bracket)
	}

	max := min
	if len(parts) == 2 {
		max, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: не разобран диапазон %q", common.ErrLevelBracket, bracket)
		}
	}

	if min < 1 || max > xp.MaxLevel || min > max {
		return 0, 0, fmt.Errorf("%w: диапазон %q вне кривой уровней", common.ErrLevelBracket, bracket)
	}

	return min, max, nil
}

// Start создаёт активный квест.
func (s *Service) Start(ctx context.Context, chatID int64, name, questType, bracket string, createdBy int64) (*Quest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrQuestNotFound
	}
	if _, _, err := parseBracket(bracket); err != nil {
		return nil, err
	}

	q, err := s.repo.Create(ctx, chatID, name, questType, bracket, createdBy)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"quest":      q.Name,
		"type":       q.QuestType,
		"bracket":    q.LevelBracket,
		"created_by": createdBy,
	}).Info("Создан квест")

	return q, nil
}

// AddParticipant записывает персонажа в квест. Персонаж ищется
// среди всех игроков, уровень проверяется против диапазона квеста.
func (s *Service) AddParticipant(ctx context.Context, chatID int64, questName, charName string, mentionedOwners map[int64]bool) (*Quest, *characters.Match, error) {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return nil, nil, err
	}

	m, err := s.characters.Resolve(ctx, charName, mentionedOwners)
	if err != nil {
		return nil, nil, err
	}

	min, max, err := parseBracket(q.LevelBracket)
	if err != nil {
		return nil, nil, err
	}

	level := xp.LevelForXP(m.Character.XP)
	if level < min || level > max {
		return nil, nil, fmt.Errorf("%w: «%s» %d уровня, квест для %s",
			common.ErrLevelBracket, m.Character.Name, level, q.LevelBracket)
	}

	if err := s.repo.AddParticipant(ctx, q.ID, m.Character.ID, level, m.Character.XP); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"quest":     q.Name,
		"character": m.Character.Name,
		"level":     level,
	}).Info("Персонаж записан в квест")

	return q, m, nil
}

// RemoveParticipant убирает персонажа из квеста.
func (s *Service) RemoveParticipant(ctx context.Context, chatID int64, questName, charName string, mentionedOwners map[int64]bool) error {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return err
	}

	m, err := s.characters.Resolve(ctx, charName, mentionedOwners)
	if err != nil {
		return err
	}

	return s.repo.RemoveParticipant(ctx, q.ID, m.Character.ID)
}

// AddDM записывает ведущего квеста.
func (s *Service) AddDM(ctx context.Context, chatID int64, questName string, userID int64) (*Quest, error) {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddDM(ctx, q.ID, userID); err != nil {
		return nil, err
	}

	return q, nil
}

// AddMonster записывает побеждённых монстров. CR не проверяется
// при вводе: неизвестный класс всплывёт в разбивке расчёта.
func (s *Service) AddMonster(ctx context.Context, chatID int64, questName, cr string, name *string, count int) (*Quest, error) {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return nil, err
	}

	if count < 1 {
		count = 1
	}

	if err := s.repo.AddMonster(ctx, q.ID, cr, name, count); err != nil {
		return nil, err
	}

	return q, nil
}

// Complete завершает квест и выдаёт каждому участнику его долю
// опыта через журнал выдач. Состав квеста замораживается до
// расчёта: повторное завершение невозможно.
func (s *Service) Complete(ctx context.Context, chatID int64, questName string, completedBy int64) (*Settlement, error) {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return nil, err
	}

	participants, err := s.repo.Participants(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	monsters, err := s.repo.Monsters(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	// Сначала заморозка: если квест уже завершили параллельно,
	// расчёт и выдача не повторятся.
	if err := s.repo.Complete(ctx, q.ID); err != nil {
		return nil, err
	}

	settlement := Settle(q, len(participants), monsters)
	share := settlement.Share

	memo := fmt.Sprintf("квест «%s»", q.Name)
	for _, p := range participants {
		if share <= 0 {
			break
		}
		if _, err := s.xp.Grant(ctx, p.CharacterID, p.CharacterName, share, completedBy, memo); err != nil {
			// Один сбой не лишает долей остальных участников.
			log.WithError(err).WithFields(log.Fields{
				"quest":     q.Name,
				"character": p.CharacterName,
				"share":     share,
			}).Error("Не удалось выдать долю опыта за квест")
		}
	}

	log.WithFields(log.Fields{
		"quest":        q.Name,
		"total_xp":     settlement.XP.TotalXP,
		"participants": len(participants),
		"share":        share,
	}).Info("Квест завершён")

	return settlement, nil
}

// Delete удаляет квест целиком. Выданный при завершении опыт
// остаётся: журнал выдач только пополняется.
func (s *Service) Delete(ctx context.Context, chatID int64, questName string) error {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, q.ID); err != nil {
		return err
	}

	log.WithField("quest", q.Name).Warn("Квест удалён")
	return nil
}

// Info возвращает активный квест со всеми деталями.
func (s *Service) Info(ctx context.Context, chatID int64, questName string) (*Quest, []Participant, []DM, []Monster, error) {
	q, err := s.repo.GetActiveByName(ctx, chatID, questName)
	if errors.Is(err, common.ErrQuestNotFound) {
		// Карточку завершённого квеста можно смотреть повторно.
		q, err = s.repo.GetCompletedByName(ctx, chatID, questName)
	}
	if err != nil {
		return nil, nil, nil, nil, err
	}

	participants, err := s.repo.Participants(ctx, q.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	dms, err := s.repo.DMs(ctx, q.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	monsters, err := s.repo.Monsters(ctx, q.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return q, participants, dms, monsters, nil
}

// ListActive возвращает активные квесты чата.
func (s *Service) ListActive(ctx context.Context, chatID int64) ([]*Quest, error) {
	return s.repo.ListByStatus(ctx, chatID, StatusActive, 50)
}

// Archive возвращает завершённые квесты чата.
func (s *Service) Archive(ctx context.Context, chatID int64) ([]*Quest, error) {
	return s.repo.ListByStatus(ctx, chatID, StatusCompleted, 20)
}
