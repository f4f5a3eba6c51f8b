// Package reminders runs the once-a-minute housekeeping of the bot: the
// daily due-cards reminder and the daily automatic backup.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/vocab-srs/pkg/backup"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/queue"
)

func StartPeriodicMessages(ctx context.Context, b *bot.Bot, repo *db.Repository) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			processTick(ctx, b, repo, now)
		}
	}
}

func processTick(ctx context.Context, b *bot.Bot, repo *db.Repository, now time.Time) {
	loc, err := config.AppConfig.Study.Location()
	if err != nil {
		logger.Error("invalid study timezone", "error", err)
		loc = time.Local
	}

	if _, err := sendDailyReminder(ctx, b, repo, now, loc); err != nil {
		logger.Error("failed to send reminder", "error", err)
	}

	if dir := config.AppConfig.Study.BackupDir; dir != "" {
		svc := backup.NewService(repo).WithClock(func() time.Time { return now })
		if _, err := svc.AutoBackup(ctx, dir, loc); err != nil {
			logger.Error("automatic backup failed", "dir", dir, "error", err)
		}
	}
}

// reminderHour is the settings override, or the configured default.
func reminderHour(settings db.UserSettings) int {
	if settings.ReminderHour != nil {
		return *settings.ReminderHour
	}
	return config.AppConfig.Study.ReminderHour
}

// sendDailyReminder messages the owner once per local day, at or after the
// reminder hour, while there are due cards.
func sendDailyReminder(ctx context.Context, b *bot.Bot, repo *db.Repository, now time.Time, loc *time.Location) (bool, error) {
	ownerID := config.AppConfig.Telegram.OwnerID
	if ownerID == 0 {
		return false, nil
	}

	settings, err := repo.Settings(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}
	localNow := now.In(loc)
	if localNow.Hour() < reminderHour(settings) {
		return false, nil
	}
	if last := settings.LastReminderSentAt; last != nil && sameDay(last.In(loc), localNow) {
		return false, nil
	}

	builder := queue.NewBuilder(repo, config.AppConfig.Study.FrequentErrorsTopN, loc).
		WithClock(func() time.Time { return now })
	overview, err := builder.Overview(ctx)
	if err != nil {
		return false, err
	}
	if overview.Due == 0 {
		return false, nil
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: ownerID,
		Text:   reminderText(overview),
	}); err != nil {
		return false, err
	}

	stamp := db.Timestamp(now)
	settings.LastReminderSentAt = &stamp
	if err := repo.SaveSettings(ctx, &settings); err != nil {
		return true, fmt.Errorf("record reminder time: %w", err)
	}
	logger.Info("reminder sent", "due", overview.Due)
	return true, nil
}

func reminderText(o queue.Overview) string {
	text := fmt.Sprintf("You have %d cards due for review.", o.Due)
	if o.DailyGoal > 0 {
		text += fmt.Sprintf(" Today: %d/%d reviewed.", o.ReviewedToday, o.DailyGoal)
	}
	return text + "\nSend /review to start."
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
