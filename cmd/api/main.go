package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/event_booking/internal/adapter/cache"
	"github.com/srgjo27/event_booking/internal/adapter/handler"
	"github.com/srgjo27/event_booking/internal/adapter/publisher"
	"github.com/srgjo27/event_booking/internal/adapter/repository/memory"
	"github.com/srgjo27/event_booking/internal/adapter/repository/postgres"
	"github.com/srgjo27/event_booking/internal/core/ports"
	"github.com/srgjo27/event_booking/internal/core/services"
	"github.com/srgjo27/event_booking/internal/platform/config"
	"github.com/srgjo27/event_booking/internal/platform/database"
	"github.com/srgjo27/event_booking/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.Environment, cfg.App.Name)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	readCache, closeCache := openCache(ctx, cfg, log)
	defer closeCache()

	pub := openPublisher(ctx, cfg, log)
	defer pub.Close()

	opts := []services.Option{
		services.WithCacheTTL(cfg.Redis.CacheTTL),
		services.WithPendingCancellation(cfg.Tickets.AllowPendingCancel),
	}
	eventService := services.NewEventService(store, readCache, pub, log.Named("events"), opts...)
	ticketService := services.NewTicketService(store, readCache, pub, log.Named("tickets"), opts...)
	queryService := services.NewQueryService(store, readCache, log.Named("queries"), opts...)

	go eventService.RunFinisher(ctx, cfg.Events.FinishInterval)

	router := handler.NewRouter(
		handler.NewEventHandler(eventService, queryService),
		handler.NewTicketHandler(ticketService, queryService),
		handler.NewAuthenticator(cfg.JWT.Secret, cfg.JWT.Issuer),
		log.Named("http"),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server startup failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ports.Store, func()) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	return postgres.NewStore(db), func() { db.Close() }
}

// openCache falls back to no caching when Redis is disabled or unreachable;
// reads then always go to the store.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (ports.Cache, func()) {
	if !cfg.Redis.Enabled {
		return cache.Noop{}, func() {}
	}

	redisCfg := cache.RedisConfig{
		Host:       cfg.Redis.Host,
		Port:       cfg.Redis.Port,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		MaxRetries: 3,
	}

	log.Info("Connecting to Redis", zap.String("addr", redisCfg.Addr()))
	client, err := cache.NewRedisClient(ctx, redisCfg)
	if err != nil {
		log.Warn("Redis unavailable, caching disabled", zap.Error(err))
		return cache.Noop{}, func() {}
	}
	log.Info("Redis connected")

	return cache.NewRedisCache(client), func() { closeRedis(client, log) }
}

func closeRedis(client *redis.Client, log *zap.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("Redis close failed", zap.Error(err))
	}
}

func openPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) ports.Publisher {
	if !cfg.Kafka.Enabled {
		return publisher.Noop{}
	}

	pub, err := publisher.NewKafkaPublisher(ctx, publisher.KafkaConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		log.Warn("Kafka unavailable, notifications disabled", zap.Error(err))
		return publisher.Noop{}
	}
	log.Info("Kafka publisher ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	return pub
}
