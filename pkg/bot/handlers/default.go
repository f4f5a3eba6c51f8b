package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

const maxUploadSize = 10 << 20

const helpText = "Commands:\n" +
	"\\* /review \\[mode\\]: study cards, default is due cards\\.\n" +
	"\\* /due: today's progress and due cards\\.\n" +
	"\\* /stats \\[7days\\|30days\\|all\\]: accuracy, streaks and levels\\.\n" +
	"\\* /wordbooks: list your wordbooks\\.\n" +
	"\\* /export \\<wordbook\\>: download a wordbook as CSV\\.\n" +
	"\\* /backup: download a full JSON backup\\.\n" +
	"\\* /settings: daily goal, reminder hour and wordbooks\\.\n\n" +
	"Attach a CSV file to import it\\. The caption names the wordbook; " +
	"without a caption the file name is used\\."

// HandleHelp answers /start and /help.
func HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleHelp") {
		return
	}
	sendHelp(ctx, b, update.Message.Chat.ID)
}

func sendHelp(ctx context.Context, b *bot.Bot, chatID int64) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      helpText,
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		logger.Error("failed to send help message", "chat_id", chatID, "error", err)
	}
}

// DefaultHandler imports uploaded CSV files and shows help for anything else.
func DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "DefaultHandler") {
		return
	}
	chatID := update.Message.Chat.ID

	doc := update.Message.Document
	if doc == nil {
		sendHelp(ctx, b, chatID)
		return
	}

	logger.Info("uploading file", "file_name", doc.FileName, "user_id", update.Message.From.ID)

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".csv") {
		reply(ctx, b, chatID, "The uploaded file is not a CSV. Please upload a valid CSV file.")
		return
	}

	name := wordbookNameFor(update.Message.Caption, doc.FileName)
	if name == "" {
		reply(ctx, b, chatID, "Add a caption with the wordbook name to import this file.")
		return
	}

	data, err := downloadFile(ctx, b, doc.FileID)
	if err != nil {
		logger.Error("failed to download file", "file_id", doc.FileID, "error", err)
		reply(ctx, b, chatID, "Failed to download the file. Please try again.")
		return
	}

	result, err := importexport.ImportCSV(ctx, repository(), name, data)
	if err != nil {
		if errors.Is(err, importexport.ErrInvalidCSV) {
			reply(ctx, b, chatID, "Failed to read the CSV file. Please ensure it is in the correct format.")
			return
		}
		logger.Error("failed to import csv", "wordbook", name, "error", err)
		reply(ctx, b, chatID, "Failed to import your cards. Please try again later.")
		return
	}
	if result.Inserted == 0 && result.Updated == 0 {
		reply(ctx, b, chatID, fmt.Sprintf("No valid cards found to import. Skipped %d rows.", result.Skipped))
		return
	}

	reply(ctx, b, chatID, fmt.Sprintf("Wordbook %q: imported %d new cards, updated %d cards, skipped %d rows.",
		result.Wordbook.Name, result.Inserted, result.Updated, result.Skipped))
}

// wordbookNameFor prefers the caption and falls back to the file name.
func wordbookNameFor(caption, fileName string) string {
	if name := strings.TrimSpace(caption); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
}

func downloadFile(ctx context.Context, b *bot.Bot, fileID string) ([]byte, error) {
	file, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", config.AppConfig.Telegram.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
