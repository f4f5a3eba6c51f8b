package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/vocab-srs/pkg/srs"
)

// Overview is the daily summary shown before a session starts.
type Overview struct {
	Total         int
	Due           int
	New           int
	ReviewedToday int
	DailyGoal     int
	// NextDueAt is the earliest future due time, zero when nothing is scheduled.
	NextDueAt time.Time
}

// GoalReached reports whether today's reviews met the daily goal.
func (o Overview) GoalReached() bool {
	return o.DailyGoal > 0 && o.ReviewedToday >= o.DailyGoal
}

// Overview counts over the wordbooks selected in settings.
func (b *Builder) Overview(ctx context.Context) (Overview, error) {
	settings, err := b.repo.Settings(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load settings: %w", err)
	}
	pop, err := b.load(ctx, Request{Mode: ModeDue, SelectedWordbookIDs: settings.SelectedWordbookIDs})
	if err != nil {
		return Overview{}, err
	}

	now := b.now()
	today := dayStart(now, b.loc)
	tomorrow := today.AddDate(0, 0, 1)

	out := Overview{Total: len(pop.cards), DailyGoal: settings.DailyGoal}
	for _, c := range pop.cards {
		if record, ok := pop.srs[c.ID]; ok {
			if srs.IsDue(record.DueAt, now) {
				out.Due++
			} else if out.NextDueAt.IsZero() || record.DueAt.Before(out.NextDueAt) {
				out.NextDueAt = record.DueAt
			}
		}
		stats, ok := pop.stats[c.ID]
		if !ok || stats.ShownCount == 0 {
			out.New++
			continue
		}
		if stats.LastReviewedAt != nil {
			at := stats.LastReviewedAt.In(b.loc)
			if !at.Before(today) && at.Before(tomorrow) {
				out.ReviewedToday++
			}
		}
	}
	return out, nil
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
