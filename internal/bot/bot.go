package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/example/espbot/internal/lesson"
	"github.com/example/espbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Engine handles user events
type Engine interface {
	Handle(ctx context.Context, userID int64, ev lesson.Event) ([]lesson.Reply, error)
}

// ReminderRunner sends review reminders on demand
type ReminderRunner interface {
	RunCheck(ctx context.Context) (int, error)
	RunManualCheck(ctx context.Context, userID int64) (int, error)
}

// StatisticsSource provides the admin overview
type StatisticsSource interface {
	Overview(ctx context.Context, now time.Time) (*models.Statistics, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api        *tgbotapi.BotAPI
	token      string
	engine     Engine
	reminders  ReminderRunner
	statistics StatisticsSource
	isAdmin    func(userID int64) bool
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new bot instance; isAdmin decides who may run admin commands
func New(token string, engine Engine, isAdmin func(userID int64) bool, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Bot{
		token:      token,
		engine:     engine,
		isAdmin:    isAdmin,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// SetReminders enables the admin /remind command
func (b *Bot) SetReminders(r ReminderRunner) {
	b.reminders = r
}

// SetStatistics enables the admin /stats command
func (b *Bot) SetStatistics(s StatisticsSource) {
	b.statistics = s
}

// Connect authorizes the bot; it must be called before Run or SendReminders
func (b *Bot) Connect() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.logger.Info("authorized", zap.String("account", botAPI.Self.UserName))
	return nil
}

// Run handles updates until ctx is cancelled. It returns after the updates
// already received have been handled.
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		if err := b.Connect(); err != nil {
			return err
		}
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	// a started step finishes even when shutdown begins
	handleCtx := context.WithoutCancel(ctx)
	queue := newUserQueue(func(update tgbotapi.Update) {
		b.handleUpdate(handleCtx, update)
	})

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			queue.wait()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				queue.wait()
				return nil
			}
			queue.push(updateUserID(update), update)
		}
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	// личный чат: chat ID совпадает с user ID
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]lesson.Button{
		{{Text: "🔁 Повторить", Data: lesson.DataReview}},
	})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	chatID := message.Chat.ID

	if message.IsCommand() {
		cmd := message.Command()
		if b.isAdmin(message.From.ID) {
			switch cmd {
			case "remind":
				b.sendText(chatID, remindCommand(ctx, b.reminders, message.CommandArguments(), b.logger))
				return
			case "stats":
				b.handleStatsCommand(ctx, chatID)
				return
			}
		}
		ev, ok := commandEvent(cmd)
		if !ok {
			b.sendText(chatID, helpText)
			return
		}
		b.dispatch(ctx, chatID, message.From, ev)
		return
	}

	if message.Voice != nil {
		path, err := b.downloadVoice(ctx, message.Voice.FileID)
		if err != nil {
			b.logger.Warn("failed to download voice", zap.Int64("telegram_id", message.From.ID), zap.Error(err))
			b.sendText(chatID, "🎙 Не удалось получить голосовое сообщение, попробуй ещё раз.")
			return
		}
		defer os.Remove(path)
		b.dispatch(ctx, chatID, message.From, lesson.Event{Kind: lesson.EventVoice, AudioPath: path})
		return
	}

	if message.Text != "" {
		b.dispatch(ctx, chatID, message.From, lesson.Event{Kind: lesson.EventText, Text: message.Text})
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// убираем "часики" на кнопке
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
	if callback.Message == nil || callback.From == nil {
		return
	}

	ev, ok := lesson.ParseCallback(callback.Data)
	if !ok {
		b.logger.Warn("unknown callback data", zap.String("data", callback.Data))
		return
	}
	b.dispatch(ctx, callback.Message.Chat.ID, callback.From, ev)
}

func (b *Bot) dispatch(ctx context.Context, chatID int64, from *tgbotapi.User, ev lesson.Event) {
	ev.Username = from.UserName
	ev.FirstName = from.FirstName

	replies, err := b.engine.Handle(ctx, from.ID, ev)
	if err != nil {
		b.logger.Error("failed to handle event",
			zap.Int64("telegram_id", from.ID), zap.Int("kind", int(ev.Kind)), zap.Error(err))
	}
	b.send(chatID, replies)
}

func (b *Bot) send(chatID int64, replies []lesson.Reply) {
	for _, r := range replies {
		var c tgbotapi.Chattable
		if r.Dice {
			c = tgbotapi.NewDice(chatID)
		} else {
			msg := tgbotapi.NewMessage(chatID, r.Text)
			if len(r.Buttons) > 0 {
				msg.ReplyMarkup = createKeyboard(r.Buttons)
			}
			c = msg
		}
		if _, err := b.api.Send(c); err != nil {
			b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(chatID, []lesson.Reply{{Text: text}})
}

func (b *Bot) handleStatsCommand(ctx context.Context, chatID int64) {
	if b.statistics == nil {
		b.sendText(chatID, "Статистика недоступна.")
		return
	}
	stats, err := b.statistics.Overview(ctx, time.Now())
	if err != nil {
		b.logger.Error("failed to load statistics", zap.Error(err))
		b.sendText(chatID, "⚠️ Не удалось получить статистику.")
		return
	}
	b.sendText(chatID, statisticsText(stats))
}

// downloadVoice saves a voice message to a temporary file the caller removes
func (b *Bot) downloadVoice(ctx context.Context, fileID string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download voice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download voice: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to save voice: %w", err)
	}
	return f.Name(), nil
}

// createKeyboard creates a keyboard from reply buttons
func createKeyboard(buttons [][]lesson.Button) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}
