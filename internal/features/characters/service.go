package characters

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Service содержит бизнес-логику работы с персонажами.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис персонажей.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create создаёт персонажа после проверки имени и ссылок.
func (s *Service) Create(ctx context.Context, userID int64, name string, startXP int64, imageURL, sheetURL *string) (*Character, error) {
	input := common.CharacterInput{Name: name}
	if imageURL != nil {
		input.ImageURL = *imageURL
	}
	if sheetURL != nil {
		input.SheetURL = *sheetURL
	}
	if err := common.ValidateCharacterInput(input); err != nil {
		return nil, err
	}
	if startXP < 0 {
		return nil, common.ErrNegativeXP
	}

	c, err := s.repo.Create(ctx, userID, name, startXP, imageURL, sheetURL)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"character": c.Name,
		"start_xp":  startXP,
	}).Info("Создан новый персонаж")

	return c, nil
}

// Find ищет персонажа игрока по имени: сначала точное совпадение,
// затем нечёткий поиск по опечаткам.
func (s *Service) Find(ctx context.Context, userID int64, name string) (*Character, error) {
	c, err := s.repo.GetByName(ctx, userID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrCharacterNotFound) {
		return nil, err
	}

	names, err := s.repo.Names(ctx, userID)
	if err != nil {
		return nil, err
	}

	closest, ok := ClosestName(name, names)
	if !ok {
		return nil, common.ErrCharacterNotFound
	}

	return s.repo.GetByName(ctx, userID, closest)
}

// Active возвращает активного персонажа игрока.
func (s *Service) Active(ctx context.Context, userID int64) (*Character, error) {
	return s.repo.GetActive(ctx, userID)
}

// List возвращает персонажей игрока.
func (s *Service) List(ctx context.Context, userID int64, includeRetired bool) ([]*Character, error) {
	return s.repo.List(ctx, userID, includeRetired)
}

// SetActive делает персонажа с данным именем активным.
func (s *Service) SetActive(ctx context.Context, userID int64, name string) (*Character, error) {
	c, err := s.Find(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	id := c.ID
	if err := s.repo.SetActiveCharacter(ctx, userID, &id); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"character": c.Name,
	}).Info("Сменён активный персонаж")

	return c, nil
}

// Retire отправляет персонажа в отставку.
func (s *Service) Retire(ctx context.Context, userID int64, name string) (*Character, error) {
	c, err := s.Find(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Retire(ctx, userID, c.ID); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"character": c.Name,
		"xp":        c.XP,
	}).Info("Персонаж отправлен в отставку")

	return c, nil
}

// Resolve ищет действующего персонажа по имени среди всех игроков
// и снимает неоднозначность по упоминаниям владельцев.
func (s *Service) Resolve(ctx context.Context, name string, mentionedOwners map[int64]bool) (*Match, error) {
	matches, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, err
	}

	return Disambiguate(matches, mentionedOwners)
}

// UpdateLinks обновляет ссылки на арт и лист персонажа.
func (s *Service) UpdateLinks(ctx context.Context, userID int64, name string, imageURL, sheetURL *string) (*Character, error) {
	input := common.CharacterInput{Name: name}
	if imageURL != nil {
		input.ImageURL = *imageURL
	}
	if sheetURL != nil {
		input.SheetURL = *sheetURL
	}
	if err := common.ValidateCharacterInput(input); err != nil {
		return nil, err
	}

	c, err := s.Find(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLinks(ctx, c.ID, imageURL, sheetURL); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, c.ID)
}

// TopByXP возвращает лучших персонажей сообщества по опыту.
func (s *Service) TopByXP(ctx context.Context, limit int) ([]*Character, error) {
	return s.repo.TopByXP(ctx, limit)
}
