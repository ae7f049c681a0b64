package settings

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
)

// Вид отслеживания для команд управления чатами.
const (
	TrackRP = "рп"
	TrackHF = "хф"
)

// Service содержит бизнес-логику настроек сообщества.
type Service struct {
	repo            *Repository
	communityChatID int64
}

// NewService создаёт новый сервис настроек.
func NewService(repo *Repository, communityChatID int64) *Service {
	return &Service{repo: repo, communityChatID: communityChatID}
}

// Config возвращает действующие настройки сообщества.
func (s *Service) Config(ctx context.Context) (*ChatConfig, error) {
	return s.repo.Get(ctx, s.communityChatID)
}

// SetCharsPerXP меняет ставку символов на единицу ролевого опыта.
func (s *Service) SetCharsPerXP(ctx context.Context, chars int) error {
	if err := common.ValidateCharsPerXP(chars); err != nil {
		return err
	}

	if err := s.repo.SetCharsPerXP(ctx, s.communityChatID, chars); err != nil {
		return err
	}

	log.WithField("chars_per_xp", chars).Info("Изменена ставка ролевого опыта")
	return nil
}

// SetDailyRPCap меняет дневной лимит ролевого опыта.
func (s *Service) SetDailyRPCap(ctx context.Context, cap int) error {
	if err := common.ValidateDailyCap(cap); err != nil {
		return err
	}

	if err := s.repo.SetDailyRPCap(ctx, s.communityChatID, cap); err != nil {
		return err
	}

	log.WithField("daily_rp_cap", cap).Info("Изменён дневной лимит ролевого опыта")
	return nil
}

// SetHFRates меняет параметры начисления за добычу.
func (s *Service) SetHFRates(ctx context.Context, attempt, success, cap int) error {
	if attempt < 0 || success < 0 {
		return common.ErrNegativeXP
	}
	if err := common.ValidateDailyCap(cap); err != nil {
		return err
	}

	if err := s.repo.SetHFRates(ctx, s.communityChatID, attempt, success, cap); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"attempt_xp":   attempt,
		"success_xp":   success,
		"daily_hf_cap": cap,
	}).Info("Изменены параметры добычи")
	return nil
}

// SetLogChat назначает чат для сводок и запросов опыта.
// nil отключает служебные сообщения.
func (s *Service) SetLogChat(ctx context.Context, logChatID *int64) error {
	if err := s.repo.SetLogChat(ctx, s.communityChatID, logChatID); err != nil {
		return err
	}

	log.WithField("log_chat_id", logChatID).Info("Назначен служебный чат")
	return nil
}

// TrackChat включает или выключает отслеживание чата.
// kind — TrackRP (ролевой опыт) или TrackHF (добыча).
func (s *Service) TrackChat(ctx context.Context, kind string, chatID int64, enable bool) error {
	var column string
	switch kind {
	case TrackRP:
		column = "rp_chats"
	case TrackHF:
		column = "hf_chats"
	default:
		return fmt.Errorf("неизвестный вид отслеживания: %s", kind)
	}

	var err error
	if enable {
		err = s.repo.AddTrackedChat(ctx, s.communityChatID, column, chatID)
	} else {
		err = s.repo.RemoveTrackedChat(ctx, s.communityChatID, column, chatID)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"kind":    kind,
		"chat_id": chatID,
		"enable":  enable,
	}).Info("Изменён список отслеживаемых чатов")
	return nil
}
