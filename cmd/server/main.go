package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/activity"
	"github.com/gautamnaik0719/noormeds/internal/api"
	"github.com/gautamnaik0719/noormeds/internal/cache"
	"github.com/gautamnaik0719/noormeds/internal/config"
	"github.com/gautamnaik0719/noormeds/internal/events"
	"github.com/gautamnaik0719/noormeds/internal/export"
	"github.com/gautamnaik0719/noormeds/internal/journal"
	"github.com/gautamnaik0719/noormeds/internal/ledger"
	"github.com/gautamnaik0719/noormeds/internal/logging"
	"github.com/gautamnaik0719/noormeds/internal/metrics"
	"github.com/gautamnaik0719/noormeds/internal/notify"
	"github.com/gautamnaik0719/noormeds/internal/service"
	"github.com/gautamnaik0719/noormeds/internal/sheets"
	"github.com/gautamnaik0719/noormeds/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := logging.Component(baseLogger, "main")

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sheets.New(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
	if err != nil {
		return fmt.Errorf("init sheets store: %w", err)
	}
	if err := store.TestConnection(ctx, cfg.Tables.Active[0]); err != nil {
		logger.Warn().Err(err).Msg("sheets connection test failed, continuing anyway")
	}

	var jrnl *journal.Journal
	if cfg.Journal.Path != "" {
		jrnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open activity journal: %w", err)
		}
		defer jrnl.Close()
	}

	auditLog := activity.NewSheetLog(store, cfg.Tables.Log, jrnl, baseLogger)

	if jrnl != nil {
		drainer := worker.NewDrainer(
			jrnl,
			auditLog,
			worker.RetryPolicy{MaxRetries: cfg.Worker.MaxRetries},
			time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second,
			cfg.Worker.BatchSize,
			baseLogger,
		)
		go drainer.Run(ctx)
	}

	lists := buildListCache(cfg, baseLogger)
	bus := events.NewEventBus()

	ldgr := ledger.New(store, auditLog, ledger.TablesFromConfig(cfg), baseLogger)
	stock := service.NewStockService(ldgr, lists, bus, baseLogger)
	exporter := export.New(ldgr, cfg.Exports.Path, baseLogger)

	if cfg.Telegram.BotToken != "" && len(cfg.Telegram.ChatIDs) > 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, depletion alerts disabled")
		} else {
			notifier := notify.New(bot, cfg.Telegram.ChatIDs, cfg.Tables.StashLabel, baseLogger)
			notifier.SubscribeDepletion(bus)
			logger.Info().Int("chats", len(cfg.Telegram.ChatIDs)).Msg("depletion alerts enabled")
		}
	}

	server := api.NewServer(cfg.API, cfg.Monitoring, stock, exporter, baseLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildListCache(cfg *config.Config, logger *zerolog.Logger) *cache.Failover {
	ttl := time.Duration(cfg.Redis.TTL) * time.Second
	memory := cache.NewMemoryLists(ttl)

	if !cfg.Redis.Enabled {
		return cache.NewFailover(cache.NewRedisLists(nil, ttl), memory, logger)
	}

	client := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, falling back to memory cache")
	}
	return cache.NewFailover(cache.NewRedisLists(client, ttl), memory, logger)
}
