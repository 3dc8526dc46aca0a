package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phone-storefront/config"
	"phone-storefront/internal/api"
	"phone-storefront/internal/backend"
	"phone-storefront/internal/broker"
	"phone-storefront/internal/redisclient"
	"phone-storefront/internal/service"
	"phone-storefront/internal/session"
	"phone-storefront/internal/store"
	"phone-storefront/internal/storefront"
	"phone-storefront/internal/util"
	"phone-storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	origin := uuid.New().String()
	logger.Info("Starting storefront",
		zap.String("env", cfg.Server.Env),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("origin", origin))

	tp, err := util.InitTracer("phone-storefront", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var checks []api.ReadinessCheck

	var redisClient *redisclient.Client
	if cfg.NeedsRedis() {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisclient.Options{
			Namespace:  cfg.Redis.Namespace,
			SessionTTL: cfg.Session.TTL,
			EventTTL:   cfg.Ledger.Retention,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
		logger.Info("Redis connected")
	}

	var sessions session.Store = session.NewMemory()
	if cfg.Session.Backend == config.SessionRedis {
		sessions = session.NewRedis(redisClient)
	}

	var ledger service.Ledger
	var eventLog api.EventLog
	switch cfg.Ledger.Backend {
	case config.LedgerRedis:
		ledger = redisClient
	case config.LedgerPostgres:
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.EnsureSchema(ctx); err != nil {
			cancel()
			logger.Fatal("Failed to prepare ledger", zap.Error(err))
		}
		if n, err := db.PruneEvents(ctx, cfg.Ledger.Retention); err != nil {
			logger.Warn("Failed to prune ledger", zap.Error(err))
		} else if n > 0 {
			logger.Info("Pruned ledger", zap.Int64("rows", n))
		}
		cancel()

		ledger = db
		eventLog = db
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: db.Ping})
		logger.Info("Database connected")
	default:
		ledger = service.NewMemoryLedger()
	}

	client := backend.New(backend.NewHTTPClient(cfg.Backend.Timeout), cfg.Backend.BaseURL, sessions)

	opts := storefront.Options{
		API:               client,
		Sessions:          sessions,
		Ledger:            ledger,
		Origin:            origin,
		EnrichConcurrency: cfg.Enrich.Concurrency,
	}

	var producer *broker.Producer
	if cfg.Kafka.Enabled {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		opts.Relay = producer
		logger.Info("Kafka relay enabled", zap.String("topic", cfg.Kafka.Topic))
	}

	sf := storefront.New(opts)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var relayWorker *worker.RelayWorker
	if cfg.Kafka.Enabled {
		group := cfg.Kafka.ConsumerGroup
		if group == "" {
			group = "storefront-" + origin
		}
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, group)
		relayWorker = worker.NewRelayWorker(consumer, sf.Bus)
		go func() {
			if err := relayWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Relay worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(sf, checks...)
	if eventLog != nil {
		handler.WithEventLog(eventLog)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if relayWorker != nil {
		_ = relayWorker.Stop()
	}

	logger.Info("Server exited")
}
