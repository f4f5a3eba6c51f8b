package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/backup"
	"github.com/smith3v/vocab-srs/pkg/importexport"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

// HandleExport sends one wordbook as a CSV document.
func HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleExport") {
		return
	}
	chatID := update.Message.Chat.ID

	name := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/export"))
	if name == "" {
		reply(ctx, b, chatID, "Usage: /export <wordbook>. Send /wordbooks to see the names.")
		return
	}

	repo := repository()
	wb, found, err := repo.FindWordbookByName(ctx, name)
	if err != nil {
		logger.Error("failed to find wordbook for export", "name", name, "error", err)
		reply(ctx, b, chatID, "Failed to export the wordbook. Please try again later.")
		return
	}
	if !found {
		reply(ctx, b, chatID, fmt.Sprintf("Wordbook %q not found.", name))
		return
	}

	wb, data, err := importexport.ExportWordbook(ctx, repo, wb.ID)
	if err != nil {
		logger.Error("failed to build export CSV", "wordbook_id", wb.ID, "error", err)
		reply(ctx, b, chatID, "Failed to export the wordbook. Please try again later.")
		return
	}

	sendDocument(ctx, b, chatID,
		importexport.ExportFilename(wb.Name, time.Now()),
		data,
		fmt.Sprintf("Wordbook %q export.", wb.Name),
		"Failed to export the wordbook. Please try again later.")
}

// HandleBackup sends the full JSON backup as a document.
func HandleBackup(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleBackup") {
		return
	}
	chatID := update.Message.Chat.ID

	var buf bytes.Buffer
	doc, err := backup.NewService(repository()).Export(ctx, &buf)
	if err != nil {
		logger.Error("failed to export backup", "error", err)
		reply(ctx, b, chatID, "Failed to build the backup. Please try again later.")
		return
	}

	caption := fmt.Sprintf("Backup: %d wordbooks, %d cards.", len(doc.Wordbooks), len(doc.Cards))
	sendDocument(ctx, b, chatID,
		backup.Filename(time.Now().In(studyLocation())),
		buf.Bytes(),
		caption,
		"Failed to send the backup. Please try again later.")
}

func sendDocument(ctx context.Context, b *bot.Bot, chatID int64, filename string, data []byte, caption, failure string) {
	_, err := b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: filename,
			Data:     bytes.NewReader(data),
		},
		Caption: caption,
	})
	if err != nil {
		logger.Error("failed to send document", "chat_id", chatID, "file_name", filename, "error", err)
		reply(ctx, b, chatID, failure)
	}
}
