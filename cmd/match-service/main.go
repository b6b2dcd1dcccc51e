package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/lifelink-health/platform/pkg/common/config"
	"github.com/lifelink-health/platform/pkg/common/database"
	"github.com/lifelink-health/platform/pkg/common/kafka"
	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/donation"
	"github.com/lifelink-health/platform/pkg/donor"
	"github.com/lifelink-health/platform/pkg/gateway/middleware"
	"github.com/lifelink-health/platform/pkg/geo"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/observability/metrics"
	"github.com/lifelink-health/platform/pkg/request"
	"github.com/lifelink-health/platform/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	logger.Init()
	cfg := config.Load()

	catalog, err := geo.Load(cfg.CityCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load city catalog")
	}

	stores, err := openStores(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to open stores")
	}
	defer database.ClosePostgres()

	engine := matching.NewEngine(catalog, cfg.DefaultBloodMaxDistanceKm, cfg.DefaultOrganMaxDistanceKm)
	svc := donation.NewService(stores, engine, notification.NewNotifier()).
		WithMetrics(metrics.New(prometheus.DefaultRegisterer))

	if cfg.MatchCacheEnabled {
		client := database.GetRedis(cfg)
		defer database.CloseRedis()
		svc.WithCache(storage.NewMatchCache(client, cfg.MatchCachePrefix, cfg.MatchCacheTTL))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.MatchEventsTopic)
		defer producer.Close()
		svc.WithPublisher(producer)

		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.RequestEventsTopic, cfg.KafkaGroupID)
		defer consumer.Close()

		go func() {
			if err := consumer.Consume(ctx, svc.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.WithError(err).Fatal("consumer error")
			}
		}()
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	donation.NewHTTPHandler(svc).Register(router.PathPrefix("/api/v1").Subrouter())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(logrus.Fields{
			"host":    cfg.ServerHost,
			"port":    cfg.ServerPort,
			"backend": cfg.DataBackend,
			"cities":  len(catalog.Cities),
			"kafka":   cfg.KafkaEnabled,
			"cache":   cfg.MatchCacheEnabled,
		}).Info("Match Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Match Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Match Service stopped")
}

func openStores(cfg *config.Config) (donation.Stores, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		return donation.Stores{
			Donors:        donor.NewMemoryStore(),
			Requests:      request.NewMemoryStore(),
			Notifications: notification.NewMemoryStore(),
		}, nil
	case config.BackendPostgres:
		db, err := database.GetPostgres(cfg)
		if err != nil {
			return donation.Stores{}, err
		}
		donors := donor.NewRepository(db)
		requests := request.NewRepository(db)
		notifications := notification.NewRepository(db)
		for name, migrate := range map[string]func() error{
			"donors":        donors.AutoMigrate,
			"requests":      requests.AutoMigrate,
			"notifications": notifications.AutoMigrate,
		} {
			if err := migrate(); err != nil {
				return donation.Stores{}, fmt.Errorf("migrate %s: %w", name, err)
			}
		}
		return donation.Stores{
			Donors:        donors,
			Requests:      requests,
			Notifications: notifications,
			Acceptor:      donation.NewTxAcceptor(db),
		}, nil
	default:
		return donation.Stores{}, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
