// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: вечерний дайджест таблицы лидеров.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"rolevik.ru/xp-bot/internal/features/characters"
	"rolevik.ru/xp-bot/internal/features/settings"
	"rolevik.ru/xp-bot/internal/features/xp"
)

// Сколько персонажей попадает в вечерний дайджест.
const digestTop = 10

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron             *cron.Cron
	characterService *characters.Service
	settingsService  *settings.Service
	sendFunc         func(chatID int64, text string)
}

// NewScheduler создаёт планировщик задач в часовом поясе сообщества.
// Дневные лимиты игроков сюда не относятся — они сбрасываются лениво
// в персональных зонах.
func NewScheduler(
	timezone string,
	characterService *characters.Service,
	settingsService *settings.Service,
	sendFunc func(chatID int64, text string),
) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).WithField("tz", timezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:             c,
		characterService: characterService,
		settingsService:  settingsService,
		sendFunc:         sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Вечерний дайджест в 21:00
	s.cron.AddFunc("0 21 * * *", func() {
		log.Info("[CRON] Вечерний дайджест")
		if err := s.postDigest(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка дайджеста")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// postDigest публикует таблицу лидеров в лог-чат.
// Если лог-чат не настроен, дайджест молча пропускается.
func (s *Scheduler) postDigest(ctx context.Context) error {
	cfg, err := s.settingsService.Config(ctx)
	if err != nil {
		return err
	}
	if cfg.LogChatID == nil {
		log.Debug("[CRON] Лог-чат не настроен, дайджест пропущен")
		return nil
	}

	top, err := s.characterService.TopByXP(ctx, digestTop)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		return nil
	}

	s.sendFunc(*cfg.LogChatID, "🌙 Вечерний дайджест\n\n"+xp.FormatLeaderboard(top))
	return nil
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
