// Package handlers holds the Telegram command and callback handlers.
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/bot/training"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"gorm.io/gorm"
)

var (
	managerMu sync.Mutex
	manager   *training.Manager
	managerDB *gorm.DB
)

func repository() *db.Repository {
	return db.NewRepository(db.DB)
}

// sessionManager is rebuilt whenever db.DB is replaced.
func sessionManager() *training.Manager {
	managerMu.Lock()
	defer managerMu.Unlock()
	if manager == nil || managerDB != db.DB {
		manager = training.NewManager(repository())
		managerDB = db.DB
	}
	return manager
}

func studyLocation() *time.Location {
	loc, err := config.AppConfig.Study.Location()
	if err != nil {
		logger.Error("invalid study timezone", "error", err)
		return time.Local
	}
	return loc
}

// isOwner reports whether the user may use the bot. With no owner configured
// every user is accepted.
func isOwner(userID int64) bool {
	owner := config.AppConfig.Telegram.OwnerID
	return owner == 0 || userID == owner
}

// validMessage checks the update shape and the owner. Updates from other
// users are dropped silently.
func validMessage(update *models.Update, handler string) bool {
	if update == nil || update.Message == nil || update.Message.From == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update", "handler", handler)
		return false
	}
	if !isOwner(update.Message.From.ID) {
		logger.Debug("ignoring message from non-owner", "handler", handler, "user_id", update.Message.From.ID)
		return false
	}
	return true
}

func reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
