package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chat-realtime/internal/adapters/kafka"
	"chat-realtime/internal/api/routes"
	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/game"
	"chat-realtime/internal/metrics"
	"chat-realtime/internal/services"
	"chat-realtime/internal/stats"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/logger"

	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

// App owns every long running component of the realtime server
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *gorm.DB
	redis      *database.RedisClient
	metrics    *metrics.Metrics
	hub        *websocket.Hub
	sweeper    *game.Sweeper
	publisher  *kafka.ResultPublisher
	consumer   *kafka.MessageConsumer
	httpServer *http.Server
}

// NewApp connects the backing stores and builds the hub and HTTP server.
// Redis and Kafka are skipped when not configured.
func NewApp(cfg *config.Config, log *logger.Logger) (app *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.db, err = database.NewConnection(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(a.db, stats.Models()...); err != nil {
		return nil, err
	}

	a.metrics = metrics.New(cfg.Metrics)
	statsService := stats.NewStatsService(stats.NewStatsRepository(a.db), log)
	hubCfg := websocket.HubConfig{
		Results:        []game.ResultSink{statsService, a.metrics},
		Metrics:        a.metrics,
		SendBuffer:     cfg.WebSocket.SendBuffer,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
	}
	deps := routes.Dependencies{
		Config:  cfg,
		Metrics: a.metrics,
		Stats:   statsService,
		Logger:  log,
	}

	if cfg.Redis.URL != "" {
		a.redis, err = database.NewRedisConnection(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		redisService := services.NewRedisService(a.redis, log)
		// a fresh process owns no connections yet
		if err := redisService.ResetPresence(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to reset presence: %w", err)
		}
		hubCfg.Presence = redisService
		deps.RateLimiter = redisService
		deps.LastSeen = redisService
	} else {
		log.Warn("REDIS_URL is empty, presence mirror and rate limiting disabled")
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.InitKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		a.publisher = kafka.NewResultPublisher(producer, cfg.Kafka.ResultsTopic, log)
		hubCfg.Results = append(hubCfg.Results, a.publisher)
	}

	store := game.NewStore()
	a.hub = websocket.NewHub(store, hubCfg, log)

	if cfg.Kafka.Enabled() {
		group, err := kafka.InitKafkaConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
		}
		a.consumer = kafka.NewMessageConsumer(group, cfg.Kafka.MessagesTopic, a.hub.Router(), log)
	}

	a.sweeper = game.NewSweeper(store, game.ExpiryPolicy{
		PendingTTL: cfg.Game.SessionTTL,
		IdleTTL:    cfg.Game.IdleTTL,
	}, cfg.Game.SweepInterval, log)
	a.sweeper.OnEvict = func(ids []string) {
		a.metrics.SessionsEvicted(len(ids))
		a.metrics.SetActiveSessions(store.Len())
	}

	deps.Hub = a.hub
	router := routes.NewRouter(deps)
	router.SetupRoutes()

	a.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// Run serves until ctx is cancelled or the listener fails, then shuts
// everything down
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.hub.Run()
	go a.sweeper.Run(ctx)
	if a.consumer != nil {
		go func() {
			if err := a.consumer.Run(ctx); err != nil {
				a.log.Error("Message consumer stopped", "error", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Server shutting down...")
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Server forced to shutdown", "error", err)
	}

	// Stop WebSocket hub
	a.hub.Stop()

	if err := a.Close(); err != nil {
		a.log.Error("Failed to release resources", "error", err)
	}
	a.log.Info("Server stopped")
	return runErr
}

// Close releases the external connections. It is safe on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.consumer != nil {
		errs = append(errs, a.consumer.Close())
		a.consumer = nil
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
		a.publisher = nil
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		a.db = nil
	}
	return errors.Join(errs...)
}

// Handler exposes the HTTP handler, for tests
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Migrate creates or updates the tables owned by the server
func Migrate(cfg *config.Config, log *logger.Logger) error {
	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	log.Info("Running GORM auto-migration...")
	if err := database.Migrate(db, stats.Models()...); err != nil {
		return err
	}
	log.Info("Database migration completed successfully")
	return nil
}
