package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"time"

	"bookstore/internal/ratelimit"
	"bookstore/internal/util"
	"bookstore/pkg/mail"
	"bookstore/pkg/queue"
	"bookstore/pkg/storage"
	"bookstore/pkg/store"
	"bookstore/pkg/token"
	"bookstore/services/catalog/internal/app"
	"bookstore/services/catalog/internal/config"
	"bookstore/services/catalog/internal/server"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	tokenTTL, err := config.ParseTokenTTL(cfg.TokenTTL, token.DefaultTTL)
	if err != nil {
		log.Fatalf("failed to parse token ttl: %v", err)
	}
	codec, err := token.NewJWTCodec(cfg.TokenSecret, tokenTTL)
	if err != nil {
		log.Fatalf("failed to init token codec: %v", err)
	}

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init postgres store: %v", err)
	}

	objects, err := storage.NewMinioStore(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	sender, err := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	if err != nil {
		log.Fatalf("failed to init mail sender: %v", err)
	}

	var eventQueue *queue.RedisEventQueue
	if cfg.NotifyMode == config.NotifyQueue {
		eventQueue, err = queue.NewRedisEventQueue(queue.RedisEventQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.EventStream,
		})
		if err != nil {
			log.Fatalf("failed to init event queue: %v", err)
		}
	}

	appCore, err := app.New(app.Config{
		Store:          dataStore,
		Objects:        objects,
		Mail:           sender,
		Tokens:         codec,
		Queue:          eventQueue,
		PageSize:       cfg.PageSize,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	appCore.StartWorkers(context.Background(), cfg.NotifyWorkers)

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RegisterLimit > 0 {
		window, err := config.ParseWindow(cfg.RegisterWindow, time.Minute)
		if err != nil {
			log.Fatalf("failed to parse rate limit window: %v", err)
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		limiter, err = ratelimit.NewFixedWindowLimiter(client, "catalog:ratelimit", cfg.RegisterLimit, window)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: trusted,
		BaseURL:        cfg.PublicBaseURL,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("catalog server listening", "addr", addr, "notify_mode", cfg.NotifyMode)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
