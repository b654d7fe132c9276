package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/espbot/internal/achievements"
	"github.com/example/espbot/internal/ai"
	"github.com/example/espbot/internal/bot"
	"github.com/example/espbot/internal/config"
	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/database"
	"github.com/example/espbot/internal/lesson"
	"github.com/example/espbot/internal/logging"
	"github.com/example/espbot/internal/metrics"
	"github.com/example/espbot/internal/placement"
	"github.com/example/espbot/internal/scheduler"
	"github.com/example/espbot/internal/session"
	"github.com/example/espbot/internal/spaced_repetition"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Создаем канал для сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Подключаемся к базе данных
	driver, dsn := cfg.DSN()
	db, err := database.Connect(driver, dsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("driver", driver), zap.Error(err))
	}
	defer db.Close()

	users := database.NewUserRepository(db)
	reviewRepo := database.NewReviewRepository(db)

	reviews := spaced_repetition.NewScheduler(reviewRepo, users, logger.Named("reviews"))
	reviews.Dedup = cfg.ReviewDedup

	bank, err := placement.Load()
	if err != nil {
		logger.Fatal("failed to load placement questions", zap.Error(err))
	}

	loader := content.NewLoader(os.DirFS(cfg.ContentDir))
	for _, t := range []content.Track{content.TrackZero, content.TrackA1, content.TrackA2, content.TrackB1} {
		logger.Info("lessons found", zap.String("track", string(t)), zap.Int("count", loader.TrackLength(t)))
	}

	var judge lesson.Judge = ai.Local{}
	var transcriber lesson.Transcriber = ai.Local{}
	chatGPT, err := ai.New(ai.Options{
		APIKey:          cfg.OpenAIKey,
		BaseURL:         cfg.OpenAIURL,
		Model:           cfg.OpenAIModel,
		TranscribeModel: cfg.OpenAITranscribeModel,
	})
	switch {
	case err == nil:
		judge, transcriber = chatGPT, chatGPT
	case errors.Is(err, ai.ErrUnavailable):
		logger.Warn("OpenAI is not configured, answers are checked by exact match and voice is disabled")
	default:
		logger.Fatal("failed to create OpenAI client", zap.Error(err))
	}

	engine := lesson.NewEngine(lesson.Deps{
		Users:             users,
		Reviews:           reviews,
		Content:           loader,
		Sessions:          session.NewStore(database.NewSessionRepository(db)),
		Achievements:      achievements.NewEvaluator(database.NewAchievementRepository(db)),
		Placement:         bank,
		Judge:             judge,
		Transcriber:       transcriber,
		Logger:            logger.Named("lesson"),
		ReviewLimit:       cfg.ReviewLimit,
		LevelTestCooldown: cfg.LevelTestCooldown(),
	})

	b, err := bot.New(cfg.TelegramToken, engine, cfg.IsAdmin, logger.Named("bot"))
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}
	b.SetStatistics(database.NewStatisticsRepository(db))
	if err := b.Connect(); err != nil {
		logger.Fatal("failed to connect to Telegram", zap.Error(err))
	}

	if cfg.SchedulerEnabled {
		s := scheduler.New(reviewRepo, b, cfg.ReminderTime, logger.Named("scheduler"))
		if err := s.Start(); err != nil {
			logger.Fatal("failed to start reminders", zap.Error(err))
		}
		defer s.Stop()
		b.SetReminders(s)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger.Named("metrics")); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// Канал для ожидания завершения бота
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.Run(ctx); err != nil {
			logger.Error("bot error", zap.Error(err))
		}
	}()

	logger.Info("bot started")
	select {
	case sig := <-sigChan:
		logger.Info("received signal", zap.String("signal", sig.String()))
		cancel()
	case <-done:
	}

	// Даем время на graceful shutdown
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("shutdown timed out")
	}
	logger.Info("bot stopped successfully")
}
