package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ordersync/internal/health"
	"github.com/vladislavdragonenkov/ordersync/internal/idosell"
	"github.com/vladislavdragonenkov/ordersync/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ordersync/internal/service/sync"
	"github.com/vladislavdragonenkov/ordersync/internal/storage/postgres"
	"github.com/vladislavdragonenkov/ordersync/internal/version"
)

// Run собирает зависимости сервиса и блокируется до отмены ctx либо до
// фатальной ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	store, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close database")
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	logger.Info("database schema is up to date")

	repo := postgres.NewOrderRepository(store)
	source := idosell.NewClient(cfg.Domain, cfg.APIKey)

	// Kafka producer опционален: без брокеров сервис работает как обычно,
	// просто не публикует события о завершённых проходах.
	kafkaProducer := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	syncOptions := []sync.Option{
		sync.WithLogger(logger.WithField("layer", "sync")),
	}
	if kafkaProducer != nil {
		syncOptions = append(syncOptions, sync.WithPublisher(kafka.NewSyncEventPublisher(kafkaProducer)))
	}
	syncer := sync.NewSyncer(repo, source, syncOptions...)

	scheduler, err := sync.NewScheduler(syncer, cfg.SyncSchedule, logger.WithField("layer", "scheduler"))
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	go syncer.Bootstrap(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(pingCtx)
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger)

	apiSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(cfg, repo, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.ListenAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
