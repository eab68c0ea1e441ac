package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/GDGAOU/notification-service/internal/auth"
	"github.com/GDGAOU/notification-service/internal/config"
	"github.com/GDGAOU/notification-service/internal/handler"
	"github.com/GDGAOU/notification-service/internal/hub"
	notifykafka "github.com/GDGAOU/notification-service/internal/kafka"
	"github.com/GDGAOU/notification-service/internal/logger"
	"github.com/GDGAOU/notification-service/internal/metrics"
	"github.com/GDGAOU/notification-service/internal/repository"
	"github.com/GDGAOU/notification-service/internal/routes"
	"github.com/GDGAOU/notification-service/internal/service"
	"github.com/GDGAOU/notification-service/internal/sse"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	metrics.Init()
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				zlog.Errorw("metrics listener stopped", "error", err)
			}
		}()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var store repository.Store
	if cfg.Mongo.URI != "" {
		client, err := repository.Connect(rootCtx, cfg.Mongo.URI)
		if err != nil {
			zlog.Fatalw("mongo connect", "error", err)
		}
		defer client.Disconnect(context.Background())
		store = repository.NewNotificationRepo(client.Database(cfg.Mongo.Database))
	} else {
		zlog.Warn("no mongo uri configured, using in-memory store")
		store = repository.NewMemoryStore()
	}

	router := hub.New(zlog)
	defer router.CloseAll()

	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		bridge := hub.NewBridge(rdb, cfg.Redis.Channel, router, zlog)
		go bridge.Run(rootCtx)
	}

	svc := service.New(store, router, zlog)
	h := handler.New(svc, zlog)
	streamH := sse.NewHandler(router, cfg.PingInterval, cfg.SSE.SendBufferSize, zlog)
	validator := auth.NewValidator(cfg.JWT.Secret)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env != "development"})
	app.Use(fiberlogger.New())
	routes.Register(app, h, streamH, validator)

	if cfg.Kafka.Enabled {
		consumer := notifykafka.NewConsumer(
			cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.GroupID, cfg.Kafka.DLQTopic,
			svc, cfg.Kafka.MaxRetries, cfg.RetryBackoff, zlog,
		)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(rootCtx); err != nil && rootCtx.Err() == nil {
				zlog.Errorw("kafka consumer stopped", "error", err)
			}
		}()
	}

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.Port
		zlog.Infow("starting notification service", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zlog.Fatalw("server error", "error", err)
	case s := <-sig:
		zlog.Infow("shutdown signal received", "signal", s.String())
	}

	rootCancel()
	router.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warnw("server shutdown", "error", err)
	}
	zlog.Info("shutdown complete")
}
