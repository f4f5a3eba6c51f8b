package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/ui"
	"gorm.io/datatypes"
)

const (
	MinDailyGoal = 1
	MaxDailyGoal = 500

	MinReminderHour = 0
	MaxReminderHour = 23
)

var (
	ErrBelowMin      = errors.New("value below minimum")
	ErrAboveMax      = errors.New("value above maximum")
	ErrInvalidAction = errors.New("invalid settings action")
)

func HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleSettings") {
		return
	}
	chatID := update.Message.Chat.ID

	repo := repository()
	settings, err := repo.Settings(ctx)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		reply(ctx, b, chatID, "Failed to load your settings. Please try again later.")
		return
	}
	books, err := repo.ListWordbooks(ctx)
	if err != nil {
		logger.Error("failed to list wordbooks", "error", err)
		reply(ctx, b, chatID, "Failed to load your settings. Please try again later.")
		return
	}

	text, keyboard, err := renderSettingsScreen(ui.ScreenHome, settings, books)
	if err != nil {
		logger.Error("failed to render settings home", "error", err)
		reply(ctx, b, chatID, "Failed to render settings. Please try again later.")
		return
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to send settings message", "chat_id", chatID, "error", err)
	}
}

func HandleSettingsCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleSettingsCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answered := false
	answerCallback := func(text string) {
		if answered || callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
		answered = true
	}

	if !isOwner(update.CallbackQuery.From.ID) {
		answerCallback("Unknown command")
		return
	}

	action, err := ui.ParseCallbackData(update.CallbackQuery.Data)
	if err != nil {
		logger.Error("failed to parse settings callback", "data", update.CallbackQuery.Data, "error", err)
		answerCallback("Unknown command")
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		logger.Error("callback query message is inaccessible", "user_id", update.CallbackQuery.From.ID)
		answerCallback("Message is not available")
		return
	}
	msg := message.Message
	if msg.Chat.ID == 0 {
		logger.Error("callback query message chat ID is missing", "user_id", update.CallbackQuery.From.ID)
		answerCallback("Message is not available")
		return
	}

	repo := repository()
	settings, err := repo.Settings(ctx)
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		answerCallback("Failed to load settings")
		return
	}
	books, err := repo.ListWordbooks(ctx)
	if err != nil {
		logger.Error("failed to list wordbooks", "error", err)
		answerCallback("Failed to load settings")
		return
	}

	newSettings, nextScreen, changed, err := ApplyAction(settings, books, action)
	if err != nil {
		if errors.Is(err, ErrBelowMin) || errors.Is(err, ErrAboveMax) {
			min, max, ok := boundsForScreen(action.Screen)
			if ok {
				if errors.Is(err, ErrBelowMin) {
					answerCallback(fmt.Sprintf("Minimum is %d", min))
				} else {
					answerCallback(fmt.Sprintf("Maximum is %d", max))
				}
			} else {
				answerCallback("Unknown command")
			}
			return
		}
		logger.Error("failed to apply settings action", "user_id", update.CallbackQuery.From.ID, "error", err)
		answerCallback("Unknown command")
		return
	}

	if changed {
		if err := repo.SaveSettings(ctx, &newSettings); err != nil {
			logger.Error("failed to save settings", "error", err)
			answerCallback("Failed to save settings")
			return
		}
	}

	answerCallback("")

	if !changed && action.Op == ui.OpSet {
		return
	}

	text, keyboard, err := renderSettingsScreen(nextScreen, newSettings, books)
	if err != nil {
		logger.Error("failed to render settings screen", "screen", nextScreen, "error", err)
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to edit settings message", "user_id", update.CallbackQuery.From.ID, "error", err)
	}
}

func renderSettingsScreen(screen ui.Screen, settings db.UserSettings, books []db.Wordbook) (string, *models.InlineKeyboardMarkup, error) {
	switch screen {
	case ui.ScreenHome:
		return ui.RenderHome(settings.DailyGoal, effectiveReminderHour(settings), len(selectedBookIDs(settings, books)), len(books))
	case ui.ScreenGoal:
		return ui.RenderGoal(settings.DailyGoal)
	case ui.ScreenHour:
		return ui.RenderHour(effectiveReminderHour(settings))
	case ui.ScreenBooks:
		selected := selectedBookIDs(settings, books)
		options := lo.Map(books, func(wb db.Wordbook, _ int) ui.BookOption {
			return ui.BookOption{Name: wb.Name, Selected: lo.Contains(selected, wb.ID)}
		})
		return ui.RenderBooks(options)
	case ui.ScreenClose:
		return "Settings saved ✅", &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		}, nil
	default:
		return "", nil, fmt.Errorf("unknown settings screen %q", screen)
	}
}

func effectiveReminderHour(settings db.UserSettings) int {
	if settings.ReminderHour != nil {
		return *settings.ReminderHour
	}
	return config.AppConfig.Study.ReminderHour
}

// selectedBookIDs drops selections whose wordbook no longer exists.
func selectedBookIDs(settings db.UserSettings, books []db.Wordbook) []string {
	existing := lo.Map(books, func(wb db.Wordbook, _ int) string { return wb.ID })
	return lo.Filter(lo.Uniq([]string(settings.SelectedWordbookIDs)), func(id string, _ int) bool {
		return lo.Contains(existing, id)
	})
}

// ApplyAction returns the updated settings, the screen to show next and
// whether anything changed. Book toggles address books by list position.
func ApplyAction(settings db.UserSettings, books []db.Wordbook, action ui.Action) (db.UserSettings, ui.Screen, bool, error) {
	switch action.Screen {
	case ui.ScreenHome, ui.ScreenClose:
		if action.Op != ui.OpNone {
			return settings, action.Screen, false, ErrInvalidAction
		}
		return settings, action.Screen, false, nil
	case ui.ScreenGoal:
		next, changed, err := applyValue(settings.DailyGoal, action, MinDailyGoal, MaxDailyGoal)
		if err != nil {
			return settings, ui.ScreenGoal, false, err
		}
		newSettings := settings
		newSettings.DailyGoal = next
		return newSettings, ui.ScreenGoal, changed, nil
	case ui.ScreenHour:
		next, changed, err := applyValue(effectiveReminderHour(settings), action, MinReminderHour, MaxReminderHour)
		if err != nil {
			return settings, ui.ScreenHour, false, err
		}
		newSettings := settings
		if changed {
			newSettings.ReminderHour = &next
		}
		return newSettings, ui.ScreenHour, changed, nil
	case ui.ScreenBooks:
		if action.Op == ui.OpNone {
			return settings, ui.ScreenBooks, false, nil
		}
		if action.Op != ui.OpToggle || action.Value >= len(books) {
			return settings, ui.ScreenBooks, false, ErrInvalidAction
		}
		id := books[action.Value].ID
		selected := selectedBookIDs(settings, books)
		if lo.Contains(selected, id) {
			selected = lo.Without(selected, id)
		} else {
			selected = append(selected, id)
		}
		newSettings := settings
		newSettings.SelectedWordbookIDs = datatypes.NewJSONSlice(selected)
		return newSettings, ui.ScreenBooks, true, nil
	default:
		return settings, ui.ScreenHome, false, ErrInvalidAction
	}
}

func applyValue(current int, action ui.Action, min, max int) (int, bool, error) {
	switch action.Op {
	case ui.OpNone:
		return current, false, nil
	case ui.OpInc:
		return clampValue(current, current+1, min, max)
	case ui.OpDec:
		return clampValue(current, current-1, min, max)
	case ui.OpSet:
		return clampValue(current, action.Value, min, max)
	default:
		return current, false, ErrInvalidAction
	}
}

func clampValue(current, next, min, max int) (int, bool, error) {
	if next < min {
		return current, false, ErrBelowMin
	}
	if next > max {
		return current, false, ErrAboveMax
	}
	if next == current {
		return current, false, nil
	}
	return next, true, nil
}

func boundsForScreen(screen ui.Screen) (int, int, bool) {
	switch screen {
	case ui.ScreenGoal:
		return MinDailyGoal, MaxDailyGoal, true
	case ui.ScreenHour:
		return MinReminderHour, MaxReminderHour, true
	default:
		return 0, 0, false
	}
}
