package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
	"github.com/vladislavdragonenkov/ordersync/internal/metrics"
)

// Options задаёт необязательные зависимости Syncer.
type Options struct {
	Logger    *log.Entry
	Publisher domain.SyncEventPublisher
	Now       func() time.Time
}

// Option настраивает Syncer.
type Option func(*Options)

// WithLogger задаёт logger синхронизатора.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithPublisher задаёт publisher событий о завершении проходов.
func WithPublisher(publisher domain.SyncEventPublisher) Option {
	return func(opts *Options) {
		opts.Publisher = publisher
	}
}

// WithNow задаёт источник текущего времени.
func WithNow(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// Syncer выполняет проходы инкрементальной синхронизации: окно дат от
// последнего успешного прохода до текущего момента, постраничная выборка
// из внешнего источника, батчевая вставка в хранилище, запись итога в
// журнал синхронизаций.
type Syncer struct {
	repo      domain.OrderRepository
	source    domain.OrderSource
	publisher domain.SyncEventPublisher
	logger    *log.Entry
	metrics   *metrics.SyncMetrics
	now       func() time.Time
}

// NewSyncer создаёт синхронизатор поверх хранилища и внешнего источника.
func NewSyncer(repo domain.OrderRepository, source domain.OrderSource, options ...Option) *Syncer {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "syncer")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Syncer{
		repo:      repo,
		source:    source,
		publisher: opts.Publisher,
		logger:    logger,
		metrics:   metrics.NewSyncMetrics(),
		now:       now,
	}
}

// RunPass выполняет один полный проход синхронизации и возвращает число
// вставленных заказов. Итог прохода (finished либо error) записывается в
// журнал с отметкой времени начала прохода, так что следующее окно
// начинается ровно там, где закончилось текущее.
func (s *Syncer) RunPass(ctx context.Context) (int, error) {
	passID := uuid.NewString()
	logger := s.logger.WithField("pass_id", passID)

	now := s.now().UTC()
	window := domain.DateRange{To: now}

	since, err := s.repo.LastFinishedSyncAt(ctx)
	switch {
	case err == nil:
		window.From = since
		logger.WithField("since", since).Info("starting incremental sync pass")
	case errors.Is(err, domain.ErrNoSyncHistory):
		logger.Info("sync history is empty, starting full sync pass")
	default:
		return 0, fmt.Errorf("resolve sync watermark: %w", err)
	}

	s.metrics.RecordPassStarted()
	started := time.Now()

	total, err := s.pageThrough(ctx, logger, window)
	if err != nil {
		s.metrics.RecordPassFailed()
		if recordErr := s.repo.RecordSyncAttempt(ctx, now, domain.SyncStatusError); recordErr != nil {
			logger.WithError(recordErr).Error("failed to record error sync attempt")
		}
		return total, err
	}

	if err := s.repo.RecordSyncAttempt(ctx, now, domain.SyncStatusFinished); err != nil {
		s.metrics.RecordPassFailed()
		return total, fmt.Errorf("record finished sync attempt: %w", err)
	}

	s.metrics.RecordPassFinished(time.Since(started))
	logger.WithField("inserted", total).Info("sync pass finished")

	s.publishCompleted(logger, passID, window, total)

	return total, nil
}

// pageThrough выгружает страницы окна window, начиная с нулевой, и
// вставляет их в хранилище. Пустая страница завершает проход. Страница с
// HasMore=false тоже завершает проход, и её заказы НЕ сохраняются: так
// платформа обозначает конец выдачи, и это поведение сознательно оставлено
// как есть, а не "исправлено".
func (s *Syncer) pageThrough(ctx context.Context, logger *log.Entry, window domain.DateRange) (int, error) {
	total := 0
	for page := 0; ; page++ {
		result, err := s.source.FetchPage(ctx, window, page)
		if err != nil {
			return total, fmt.Errorf("fetch page %d: %w", page, err)
		}
		s.metrics.RecordPageFetched()

		if len(result.Orders) == 0 {
			return total, nil
		}
		if !result.HasMore {
			return total, nil
		}

		inserted, err := s.repo.UpsertBatch(ctx, result.Orders)
		if err != nil {
			return total, fmt.Errorf("upsert page %d: %w", page, err)
		}
		total += inserted
		s.metrics.RecordOrdersInserted(inserted)
		logger.WithFields(log.Fields{"page": page, "inserted": inserted}).Info("order page persisted")
	}
}

// Bootstrap выполняет первый проход при старте процесса, если в журнале
// ещё нет ни одного успешного прохода. Ошибки только логируются: HTTP API
// продолжает обслуживаться и с пустой локальной копией.
func (s *Syncer) Bootstrap(ctx context.Context) {
	last, err := s.repo.LastFinishedSyncAt(ctx)
	if err == nil {
		s.logger.WithField("last_finished_at", last).Info("sync history present, bootstrap pass not needed")
		return
	}
	if !errors.Is(err, domain.ErrNoSyncHistory) {
		s.logger.WithError(err).Error("failed to read sync history on startup")
		return
	}

	if _, err := s.RunPass(ctx); err != nil {
		s.logger.WithError(err).Error("bootstrap sync pass failed")
	}
}

func (s *Syncer) publishCompleted(logger *log.Entry, passID string, window domain.DateRange, inserted int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSyncCompleted(passID, window, inserted); err != nil {
		logger.WithError(err).Warn("failed to publish sync completion event")
	}
}
