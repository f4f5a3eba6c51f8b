package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/vocab-srs/pkg/analytics"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/queue"
)

func HandleDue(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleDue") {
		return
	}
	chatID := update.Message.Chat.ID

	loc := studyLocation()
	overview, err := queue.NewBuilder(repository(), config.AppConfig.Study.FrequentErrorsTopN, loc).Overview(ctx)
	if err != nil {
		logger.Error("failed to build overview", "error", err)
		reply(ctx, b, chatID, "Failed to load your progress. Please try again later.")
		return
	}
	reply(ctx, b, chatID, formatOverview(overview, loc))
}

func formatOverview(o queue.Overview, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Due now: %d\n", o.Due)
	fmt.Fprintf(&sb, "New: %d\n", o.New)
	fmt.Fprintf(&sb, "Reviewed today: %d/%d", o.ReviewedToday, o.DailyGoal)
	if o.GoalReached() {
		sb.WriteString(" 🎉")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total cards: %d", o.Total)
	if o.Due == 0 && !o.NextDueAt.IsZero() {
		fmt.Fprintf(&sb, "\nNext review: %s", o.NextDueAt.In(loc).Format("2006-01-02 15:04"))
	}
	return sb.String()
}

func HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleStats") {
		return
	}
	chatID := update.Message.Chat.ID

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/stats"))
	r, err := analytics.ParseRange(arg)
	if err != nil {
		reply(ctx, b, chatID, "Usage: /stats [7days|30days|all]")
		return
	}

	dashboard, err := analytics.NewAggregator(repository(), studyLocation()).Dashboard(ctx, r)
	if err != nil {
		logger.Error("failed to build dashboard", "range", r, "error", err)
		reply(ctx, b, chatID, "Failed to load statistics. Please try again later.")
		return
	}
	reply(ctx, b, chatID, formatDashboard(dashboard))
}

func formatDashboard(d analytics.Dashboard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statistics (%s)\n", d.Range)
	fmt.Fprintf(&sb, "Accuracy: %d%%\n", d.Accuracy)
	fmt.Fprintf(&sb, "Streak: %d days (longest %d)\n", d.CurrentStreak, d.LongestStreak)
	fmt.Fprintf(&sb, "Cards: %d total, %d reviewed, %d mastered\n", d.TotalCards, d.ReviewedCards, d.MasteredCards)

	if len(d.Chart) > 0 {
		sb.WriteString("\nLearned / reviewed:\n")
		for _, bucket := range d.Chart {
			fmt.Fprintf(&sb, "%s: %d / %d\n", bucket.Label, bucket.Learned, bucket.Reviewed)
		}
	}
	if len(d.Levels) > 0 {
		sb.WriteString("\nLevels:\n")
		for _, level := range d.Levels {
			fmt.Fprintf(&sb, "%s: %d/%d (%d%%)\n", level.Level, level.Mastered, level.Total, level.Percent)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func HandleWordbooks(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !validMessage(update, "HandleWordbooks") {
		return
	}
	chatID := update.Message.Chat.ID

	repo := repository()
	books, err := repo.ListWordbooks(ctx)
	if err != nil {
		logger.Error("failed to list wordbooks", "error", err)
		reply(ctx, b, chatID, "Failed to load wordbooks. Please try again later.")
		return
	}
	if len(books) == 0 {
		reply(ctx, b, chatID, "No wordbooks yet. Upload a CSV to create one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Wordbooks:")
	for _, wb := range books {
		cards, err := repo.ListCardsByWordbook(ctx, wb.ID)
		if err != nil {
			logger.Error("failed to list cards", "wordbook_id", wb.ID, "error", err)
			reply(ctx, b, chatID, "Failed to load wordbooks. Please try again later.")
			return
		}
		fmt.Fprintf(&sb, "\n- %s: %d cards", wb.Name, len(cards))
		if wb.Level != "" {
			fmt.Fprintf(&sb, " (%s)", wb.Level)
		}
	}
	reply(ctx, b, chatID, sb.String())
}
