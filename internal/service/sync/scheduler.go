package sync

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler запускает проход синхронизации по cron-расписанию
// (по умолчанию раз в сутки в полночь).
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Entry
}

// NewScheduler регистрирует запуск syncer по пятипольному cron-выражению.
// Одновременные проходы на нескольких экземплярах сервиса здесь не
// координируются: сервис рассчитан на один процесс.
func NewScheduler(syncer *Syncer, schedule string, logger *log.Entry) (*Scheduler, error) {
	if logger == nil {
		logger = log.WithField("component", "sync-scheduler")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		logger.Info("scheduled sync pass starting")
		if _, err := syncer.RunPass(context.Background()); err != nil {
			// Ошибка прохода не роняет процесс: следующий запуск по
			// расписанию выполнится как обычно.
			logger.WithError(err).Error("scheduled sync pass failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("register sync schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start запускает планировщик в фоне.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sync scheduler started")
}

// Stop останавливает планировщик и дожидается завершения текущего прохода.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sync scheduler stopped")
}
