package xp

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/common"
	"rolevik.ru/xp-bot/internal/db/postgres"
)

// Service — движок начисления опыта. Оркестрирует ленивый дневной
// сброс, начисление из трёх источников и журнал выдач.
type Service struct {
	store         Store
	retryAttempts int
	retryBaseWait time.Duration
	now           func() time.Time // подменяется в тестах
}

// NewService создаёт новый сервис начисления опыта.
func NewService(store Store, retryAttempts int, retryBaseWait time.Duration) *Service {
	return &Service{
		store:         store,
		retryAttempts: retryAttempts,
		retryBaseWait: retryBaseWait,
		now:           time.Now,
	}
}

// maybeReset лениво обнуляет дневные счётчики игрока, если в его
// часовом поясе наступили новые сутки. Вызывается перед любым
// начислением за текущий день.
func (s *Service) maybeReset(ctx context.Context, userID int64) error {
	p, err := s.store.Player(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	if !NeedsReset(p.LastReset, p.Timezone, now) {
		return nil
	}

	localDate := common.LocalDate(now, p.Timezone)
	err = postgres.WithRetry(ctx, s.retryAttempts, s.retryBaseWait, "дневной сброс", func(ctx context.Context) error {
		return s.store.ResetDaily(ctx, userID, localDate)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"date":    localDate.Format("2006-01-02"),
	}).Info("Дневные счётчики сброшены")

	return nil
}

// AccrueRP начисляет ролевой опыт активному персонажу игрока за
// сообщение в отслеживаемом чате. Длина считается в рунах, решение
// о лимите принимается в хранилище под блокировкой строки.
func (s *Service) AccrueRP(ctx context.Context, userID int64, text string, rules Rules) (*AwardResult, error) {
	added := len([]rune(text))
	if added == 0 {
		return nil, nil
	}

	if err := s.maybeReset(ctx, userID); err != nil {
		return nil, err
	}

	var outcome *RPOutcome
	err := postgres.WithRetry(ctx, s.retryAttempts, s.retryBaseWait, "ролевой опыт", func(ctx context.Context) error {
		var err error
		outcome, err = s.store.AccrueRP(ctx, userID, added, rules)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := result(outcome.CharacterName, int64(outcome.AwardUnits), outcome.OldXP, outcome.NewXP)

	if res.Awarded > 0 {
		log.WithFields(log.Fields{
			"user_id":   userID,
			"character": res.CharacterName,
			"awarded":   res.Awarded,
			"xp":        res.NewXP,
		}).Debug("Начислен ролевой опыт")
	}

	return res, nil
}

// AccrueHF начисляет опыт за распознанную попытку добычи.
// Владелец и персонаж уже определены вызывающей стороной.
func (s *Service) AccrueHF(ctx context.Context, ownerID, charID int64, charName string, success bool, rules Rules) (*AwardResult, error) {
	// Сброс проверяется и на этом пути: попытка добычи может быть
	// первым событием новых суток.
	if err := s.maybeReset(ctx, ownerID); err != nil {
		return nil, err
	}

	var (
		awarded      int
		oldXP, newXP int64
	)
	err := postgres.WithRetry(ctx, s.retryAttempts, s.retryBaseWait, "опыт за добычу", func(ctx context.Context) error {
		var err error
		awarded, oldXP, newXP, err = s.store.AccrueHF(ctx, charID, success, rules)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := result(charName, int64(awarded), oldXP, newXP)

	log.WithFields(log.Fields{
		"user_id":   ownerID,
		"character": charName,
		"success":   success,
		"awarded":   awarded,
	}).Debug("Начислен опыт за добычу")

	return res, nil
}

// Grant выдаёт опыт напрямую, минуя дневные лимиты. Сумма проходит
// проверку границ, выдача попадает в журнал. Сбой журнала не
// откатывает уже начисленный опыт, но громко логируется.
func (s *Service) Grant(ctx context.Context, charID int64, charName string, amount int64, grantedBy int64, memo string) (*AwardResult, error) {
	if err := common.ValidateXPAmount(amount, true); err != nil {
		return nil, err
	}

	var oldXP, newXP int64
	err := postgres.WithRetry(ctx, s.retryAttempts, s.retryBaseWait, "выдача опыта", func(ctx context.Context) error {
		var err error
		oldXP, newXP, err = s.store.AwardXP(ctx, charID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.LogGrant(ctx, charID, grantedBy, amount, memo); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"character_id": charID,
			"granted_by":   grantedBy,
			"amount":       amount,
		}).Error("Опыт выдан, но запись в журнал выдач не удалась")
	}

	res := result(charName, amount, oldXP, newXP)

	log.WithFields(log.Fields{
		"character":  charName,
		"granted_by": grantedBy,
		"amount":     amount,
		"xp":         newXP,
	}).Info("Выдан опыт")

	return res, nil
}

// RecentGrants возвращает последние записи журнала выдач персонажа,
// новые первыми.
func (s *Service) RecentGrants(ctx context.Context, charID int64, limit int) ([]Grant, error) {
	if limit <= 0 {
		limit = 3
	}
	return s.store.GrantHistory(ctx, charID, limit)
}
