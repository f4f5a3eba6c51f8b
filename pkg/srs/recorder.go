package srs

import (
	"context"
	"fmt"
	"time"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

// Outcome is what RecordAnswer persisted for one answer.
type Outcome struct {
	Quality int
	Stats   db.CardStats
	SRS     db.CardSRS
}

// Recorder applies review answers to the stored stats and scheduling state.
type Recorder struct {
	repo *db.Repository
	now  func() time.Time
}

func NewRecorder(repo *db.Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// WithClock replaces the time source, mostly for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// RecordAnswer counts the answer in CardStats and reschedules the card. Both
// records are written in one transaction; a missing card is db.ErrCardNotFound.
func (r *Recorder) RecordAnswer(ctx context.Context, cardID string, correct bool) (Outcome, error) {
	now := db.Timestamp(r.now())
	quality := Quality(correct)

	var out Outcome
	err := r.repo.Transaction(ctx, func(tx *db.Repository) error {
		stats, err := tx.UpsertCardStats(ctx, cardID, func(s *db.CardStats) {
			s.ShownCount++
			if correct {
				s.RightCount++
			} else {
				s.WrongCount++
			}
			reviewed := now
			s.LastReviewedAt = &reviewed
		})
		if err != nil {
			return fmt.Errorf("update stats: %w", err)
		}

		record, err := tx.UpsertCardSRS(ctx, cardID, now, func(s *db.CardSRS) {
			NextReview(StateOf(*s), quality, now).Apply(s)
		})
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}

		out = Outcome{Quality: quality, Stats: stats, SRS: record}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	logger.Debug("review recorded",
		"card_id", cardID,
		"correct", correct,
		"interval_days", out.SRS.IntervalDays,
		"due_at", out.SRS.DueAt)
	return out, nil
}
