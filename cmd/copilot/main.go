package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/xaenox/cash-copilot/internal/api"
	"github.com/xaenox/cash-copilot/internal/assistant"
	"github.com/xaenox/cash-copilot/internal/bot"
	"github.com/xaenox/cash-copilot/internal/engine"
	"github.com/xaenox/cash-copilot/internal/notify"
	"github.com/xaenox/cash-copilot/internal/planner"
	"github.com/xaenox/cash-copilot/internal/service"
	"github.com/xaenox/cash-copilot/internal/storage"
	"github.com/xaenox/cash-copilot/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// bootstrap logger until the configured one is built
	logger, _ := zap.NewProduction()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	configured, err := newLogger(cfg.Log)
	if err != nil {
		logger.Fatal("Failed to build logger", zap.Error(err), zap.String("level", cfg.Log.Level))
	}
	logger.Sync()
	logger = configured
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage", zap.String("host", cfg.Database.Host))
		pg, err := storage.NewPostgresStorage(ctx, storage.DatabaseConfig{
			URL:      cfg.Database.URL,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
		store = pg
	}

	if cfg.Redis.Address != "" {
		chat := storage.NewRedisChatStore(storage.NewRedisClient(storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.ChatTTL)
		if err := chat.Ping(ctx); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
		}
		logger.Info("Using Redis for chat history", zap.String("address", cfg.Redis.Address))
		store = storage.WithRedisChat(store, chat)
	}
	defer store.Close()

	var delegate engine.Assessor
	if cfg.Planner.URL != "" {
		logger.Info("Delegating analysis to planner", zap.String("url", cfg.Planner.URL))
		delegate = planner.NewClient(planner.Config{URL: cfg.Planner.URL, Timeout: cfg.Planner.Timeout}, logger)
	} else {
		logger.Info("No planner configured, using local rules")
	}

	chat := assistant.New(assistant.Config{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	}, logger)

	svc := service.New(store, delegate, chat, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewHandler(svc, logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var channels []notify.Channel
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, svc, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		go func() {
			if err := b.Start(); err != nil {
				logger.Error("Bot error", zap.Error(err))
			}
		}()
		defer b.Stop()

		if len(cfg.Telegram.DigestChats) > 0 {
			channels = append(channels, b.Digest(cfg.Telegram.DigestChats))
		}
	}

	smtpCfg := cfg.Notify.SMTP
	if smtpCfg.Host != "" && len(smtpCfg.To) > 0 {
		channels = append(channels, notify.NewSender(notify.SMTPConfig{
			Host:     smtpCfg.Host,
			Port:     smtpCfg.Port,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
			From:     smtpCfg.From,
			To:       smtpCfg.To,
		}, logger))
	}

	if len(channels) > 0 {
		scheduler, err := notify.NewScheduler(cfg.Notify.Schedule, svc, logger, channels...)
		if err != nil {
			logger.Fatal("Failed to schedule alert digest", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
