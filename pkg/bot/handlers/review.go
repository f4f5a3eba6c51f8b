package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/bot/training"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/queue"
)

const reviewUsage = "Usage: /review [mode] [wordbook or filter]\n" +
	"Modes: due, new, frequent-errors [top-n=20|min-errors=3|min-error-rate=50], mixed, " +
	"wordbook-ordered <wordbook>, wordbook-random <wordbook>"

// HandleReview starts a session, or resumes the open one when no mode is given.
func HandleReview(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleReview") {
		return
	}
	chatID := update.Message.Chat.ID
	args := strings.Fields(update.Message.Text)[1:]

	if len(args) == 0 {
		prompt, ok, err := sessionManager().Current(ctx, chatID)
		if err != nil {
			logger.Error("failed to load review session", "chat_id", chatID, "error", err)
		}
		if ok {
			sendPrompt(ctx, b, chatID, prompt)
			return
		}
		args = []string{string(queue.ModeDue)}
	}

	req, err := buildReviewRequest(ctx, args)
	if err != nil {
		reply(ctx, b, chatID, err.Error()+"\n\n"+reviewUsage)
		return
	}

	builder := queue.NewBuilder(repository(), config.AppConfig.Study.FrequentErrorsTopN, studyLocation())
	ids, err := builder.Build(ctx, req)
	if err != nil {
		if errors.Is(err, queue.ErrInvalidRequest) {
			reply(ctx, b, chatID, err.Error()+"\n\n"+reviewUsage)
			return
		}
		logger.Error("failed to build review queue", "chat_id", chatID, "mode", req.Mode, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}
	if len(ids) == 0 {
		reply(ctx, b, chatID, "Nothing to review right now.")
		return
	}

	prompt, ok, err := sessionManager().Start(ctx, chatID, string(req.Mode), ids)
	if err != nil {
		logger.Error("failed to start review session", "chat_id", chatID, "error", err)
		reply(ctx, b, chatID, "Failed to start review. Please try again later.")
		return
	}
	if !ok {
		reply(ctx, b, chatID, "Nothing to review right now.")
		return
	}
	sendPrompt(ctx, b, chatID, prompt)
}

func buildReviewRequest(ctx context.Context, args []string) (queue.Request, error) {
	mode, err := queue.ParseMode(strings.ToLower(args[0]))
	if err != nil {
		return queue.Request{}, fmt.Errorf("Unknown mode %q.", args[0])
	}

	repo := repository()
	settings, err := repo.Settings(ctx)
	if err != nil {
		return queue.Request{}, fmt.Errorf("Failed to load settings.")
	}
	req := queue.Request{
		Mode:                mode,
		SelectedWordbookIDs: settings.SelectedWordbookIDs,
		Limit:               settings.DailyGoal,
	}

	switch mode {
	case queue.ModeFrequentErrors:
		if len(args) > 1 {
			filter, err := queue.ParseFilter(args[1])
			if err != nil {
				return queue.Request{}, fmt.Errorf("Invalid filter %q.", args[1])
			}
			req.Filter = filter
		}
	case queue.ModeWordbookOrdered, queue.ModeWordbookRandom:
		name := strings.Join(args[1:], " ")
		if name == "" {
			return queue.Request{}, fmt.Errorf("Mode %s needs a wordbook name.", mode)
		}
		wb, found, err := repo.FindWordbookByName(ctx, name)
		if err != nil {
			return queue.Request{}, fmt.Errorf("Failed to load wordbooks.")
		}
		if !found {
			return queue.Request{}, fmt.Errorf("Wordbook %q not found.", name)
		}
		req.WordbookID = wb.ID
		req.SelectedWordbookIDs = nil
	}
	return req, nil
}

func sendPrompt(ctx context.Context, b *bot.Bot, chatID int64, prompt training.Prompt) {
	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        training.BuildPrompt(prompt),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: training.BuildKeyboard(prompt.Token),
	})
	if err != nil {
		logger.Error("failed to send review prompt", "chat_id", chatID, "error", err)
		return
	}
	if err := sessionManager().SetMessageID(ctx, chatID, prompt.Token, msg.ID); err != nil {
		logger.Error("failed to bind review prompt message", "chat_id", chatID, "error", err)
	}
}

func HandleReviewCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleReviewCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answerCallback := func(text string) {
		if callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer review callback query", "error", err)
		}
	}

	if !isOwner(update.CallbackQuery.From.ID) {
		answerCallback("Not active")
		return
	}

	token, correct, ok := training.ParseAnswerCallback(update.CallbackQuery.Data)
	if !ok {
		answerCallback("Not active")
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		answerCallback("Message missing")
		return
	}
	msg := message.Message
	if msg.Chat.ID == 0 {
		answerCallback("Message missing")
		return
	}

	result, err := sessionManager().Answer(ctx, msg.Chat.ID, token, msg.ID, correct)
	if errors.Is(err, training.ErrNotActive) {
		answerCallback("Not active")
		return
	}
	if err != nil {
		logger.Error("failed to record review answer", "chat_id", msg.Chat.ID, "error", err)
		answerCallback("Failed to save review")
		return
	}

	prompt := training.BuildPrompt(training.Prompt{
		Card:  result.Card,
		Index: result.Index,
		Total: result.Total,
	})
	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      training.FormatResolved(prompt, correct, result.Outcome),
		ParseMode: models.ParseModeMarkdown,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		},
	}); err != nil {
		logger.Error("failed to edit review prompt", "chat_id", msg.Chat.ID, "error", err)
	}
	answerCallback("")

	if result.Next == nil {
		reply(ctx, b, msg.Chat.ID, fmt.Sprintf("Session finished: %d of %d correct.", result.CorrectCount, result.AnsweredCount))
		return
	}
	sendPrompt(ctx, b, msg.Chat.ID, *result.Next)
}
