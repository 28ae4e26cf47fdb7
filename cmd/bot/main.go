package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"namozvaqti/internal/api"
	"namozvaqti/internal/bot"
	"namozvaqti/internal/config"
	"namozvaqti/internal/database"
	"namozvaqti/internal/domain"
	"namozvaqti/internal/logging"
	"namozvaqti/internal/metrics"
	"namozvaqti/internal/prayer"
	"namozvaqti/internal/repository"
	"namozvaqti/internal/service"
	"namozvaqti/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateRepo := initStateService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	prayerClient := initPrayerClient(cfg, redisClient, &logger)
	preferences := service.NewPreferenceService(db, logging.Component(&logger, "preferences"))

	metrics.Register()

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, db, preferences, prayerClient, logging.Component(&logger, "api"))
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
		go backupService.Start(ctx)
	}

	return startBot(ctx, cfg, preferences, prayerClient, stateRepo, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if cfg.Backup.Enabled && cfg.Backup.StoragePath != "" {
		if err := os.MkdirAll(cfg.Backup.StoragePath, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для бэкапов")
			return err
		}
	}
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}
	return db, nil
}

// initStateService returns a nil client and a memory-only repository when Redis is not configured.
func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StateRepository) {
	fallbackRepo := repository.NewMemoryStateRepository()
	if cfg.Redis.Address == "" {
		logger.Info().Msg("Redis not configured, using in-memory state")
		return nil, fallbackRepo
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if errPing := repository.Ping(ctx, redisClient); errPing != nil {
		logger.Warn().Err(errPing).Msg("Redis unavailable")
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, cfg.App.Name+":")
	return redisClient, repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logging.Component(logger, "state"))
}

func initPrayerClient(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *prayer.Client {
	client := prayer.NewClient(
		cfg.Prayer.BaseURL,
		time.Duration(cfg.Prayer.TimeoutSeconds)*time.Second,
		cfg.Location(),
		logging.Component(logger, "prayer"),
	)
	if redisClient != nil && cfg.Prayer.CacheTTLSeconds > 0 {
		client.UseRedisCache(redisClient, time.Duration(cfg.Prayer.CacheTTLSeconds)*time.Second)
		logger.Info().Int("ttl_seconds", cfg.Prayer.CacheTTLSeconds).Msg("Prayer times cache enabled")
	}
	return client
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	preferences *service.PreferenceService,
	prayerClient *prayer.Client,
	stateRepo domain.StateRepository,
	logger *zerolog.Logger,
) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, preferences, prayerClient,
		stateRepo, bot.NewMetrics(nil), logging.Component(logger, "bot"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	broadcastDone := startBroadcaster(ctx, cfg, preferences, prayerClient, telegramBot, stateRepo, logger)

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)
	telegramBot.Stop()

	// Let an in-flight broadcast finish before closing the database.
	<-broadcastDone

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func startBroadcaster(
	ctx context.Context,
	cfg *config.Config,
	preferences *service.PreferenceService,
	prayerClient *prayer.Client,
	sender worker.Sender,
	stateRepo domain.StateRepository,
	logger *zerolog.Logger,
) <-chan struct{} {
	done := make(chan struct{})
	if cfg.Broadcast.Disabled {
		logger.Info().Msg("Daily broadcast is disabled")
		close(done)
		return done
	}

	// Validate already accepted the value.
	hour, minute, _ := config.ParseClock(cfg.Broadcast.Time)

	broadcaster := worker.NewBroadcaster(
		preferences, prayerClient, sender, stateRepo, worker.RealClock,
		worker.BroadcastConfig{
			Hour:          hour,
			Minute:        minute,
			Location:      cfg.Location(),
			Window:        time.Duration(cfg.Broadcast.WindowSeconds) * time.Second,
			Workers:       cfg.Broadcast.Workers,
			RatePerSecond: cfg.Broadcast.RatePerSecond,
		},
		logging.Component(logger, "broadcast"),
	)

	go func() {
		defer close(done)
		if err := broadcaster.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Broadcast loop stopped")
		}
	}()
	return done
}
