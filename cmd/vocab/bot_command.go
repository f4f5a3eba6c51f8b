package main

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/smith3v/vocab-srs/pkg/bot/handlers"
	"github.com/smith3v/vocab-srs/pkg/bot/reminders"
	"github.com/smith3v/vocab-srs/pkg/bot/training"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/ui"
	"github.com/spf13/cobra"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.repository()
			if err != nil {
				return err
			}
			if strings.TrimSpace(config.AppConfig.Telegram.Token) == "" {
				return errors.New("telegram.token is not configured")
			}
			if config.AppConfig.Telegram.OwnerID == 0 {
				logger.Warn("telegram.owner_id is not set; the bot answers everyone and sends no reminders")
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			b, err := bot.New(config.AppConfig.Telegram.Token, bot.WithDefaultHandler(handlers.DefaultHandler))
			if err != nil {
				return err
			}
			registerHandlers(b)

			go reminders.StartPeriodicMessages(runCtx, b, repo)
			go repo.StartSessionCleanup(runCtx, db.SessionCleanupInterval)

			logger.Info("Starting bot...")
			b.Start(runCtx)
			return nil
		},
	}
}

func registerHandlers(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.HandleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, handlers.HandleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/review", bot.MatchTypePrefix, handlers.HandleReview)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/due", bot.MatchTypeExact, handlers.HandleDue)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, handlers.HandleStats)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/wordbooks", bot.MatchTypeExact, handlers.HandleWordbooks)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypePrefix, handlers.HandleExport)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/backup", bot.MatchTypeExact, handlers.HandleBackup)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypeExact, handlers.HandleSettings)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ui.CallbackPrefix, bot.MatchTypePrefix, handlers.HandleSettingsCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, training.AnswerCallbackPrefix, bot.MatchTypePrefix, handlers.HandleReviewCallback)
}
