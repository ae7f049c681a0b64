package players

import (
	"context"

	"github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/config"
)

// Service содержит бизнес-логику работы с игроками.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт новый сервис игроков.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// EnsurePlayer регистрирует игрока при первом событии и
// поддерживает его имя/username в актуальном состоянии.
func (s *Service) EnsurePlayer(ctx context.Context, userID int64, username, firstName, lastName string) (*Player, error) {
	return s.repo.Ensure(ctx, userID, username, firstName, lastName)
}

// GetPlayer возвращает игрока по Telegram ID.
func (s *Service) GetPlayer(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername ищет игрока по @username из упоминания.
func (s *Service) GetByUsername(ctx context.Context, username string) (*Player, error) {
	return s.repo.GetByUsername(ctx, username)
}

// SetTimezone проверяет и сохраняет часовой пояс игрока.
func (s *Service) SetTimezone(ctx context.Context, userID int64, tz string) error {
	if err := common.ValidateTimezone(tz); err != nil {
		return err
	}

	if err := s.repo.SetTimezone(ctx, userID, tz); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"timezone": tz,
	}).Info("Игрок сменил часовой пояс")

	return nil
}

// IsGM проверяет, является ли пользователь ведущим.
// Администраторы из конфигурации считаются ведущими всегда.
func (s *Service) IsGM(ctx context.Context, userID int64) bool {
	if s.cfg.IsAdmin(userID) {
		return true
	}

	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return false
	}

	return p.IsGM
}

// SetGM выставляет или снимает флаг ведущего.
func (s *Service) SetGM(ctx context.Context, userID int64, isGM bool) error {
	if err := s.repo.SetGM(ctx, userID, isGM); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"is_gm":   isGM,
	}).Info("Изменён флаг ведущего")

	return nil
}

// Purge полностью удаляет игрока со всеми персонажами.
// Необратимая операция, доступна только администраторам.
func (s *Service) Purge(ctx context.Context, userID int64) error {
	if err := s.repo.HardDelete(ctx, userID); err != nil {
		return err
	}

	logrus.WithField("user_id", userID).Warn("Игрок и все его данные удалены")

	return nil
}
