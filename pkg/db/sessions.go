package db

import (
	"context"
	"errors"
	"time"

	"github.com/smith3v/vocab-srs/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ReviewSessionTTL       = 24 * time.Hour
	SessionCleanupInterval = time.Hour
)

// LoadReviewSession returns the unexpired session of a chat, or nil.
func (r *Repository) LoadReviewSession(ctx context.Context, chatID int64, now time.Time) (*ReviewSession, error) {
	var session ReviewSession
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND expires_at > ?", chatID, Timestamp(now)).
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// UpsertReviewSession stores the session, replacing any previous one for the
// same chat. ExpiresAt is always derived from LastActivityAt.
func (r *Repository) UpsertReviewSession(ctx context.Context, session *ReviewSession) error {
	if session == nil {
		return nil
	}
	if session.LastActivityAt.IsZero() {
		session.LastActivityAt = Now()
	}
	session.LastActivityAt = Timestamp(session.LastActivityAt)
	session.ExpiresAt = session.LastActivityAt.Add(ReviewSessionTTL)
	// The chat id is the identity; a row id from an earlier load would
	// conflict on the primary key instead.
	session.ID = 0

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mode", "card_ids", "current_index", "current_token", "current_message_id",
			"correct_count", "answered_count", "last_activity_at", "expires_at", "updated_at",
		}),
	}).Create(session).Error
}

func (r *Repository) DeleteReviewSession(ctx context.Context, chatID int64) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&ReviewSession{}).Error
}

func (r *Repository) CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", Timestamp(now)).Delete(&ReviewSession{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// StartSessionCleanup blocks, sweeping expired review sessions every interval
// until ctx is cancelled.
func (r *Repository) StartSessionCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = SessionCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := r.CleanupExpiredSessions(ctx, time.Now())
			if err != nil {
				logger.Error("failed to cleanup expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Debug("expired review sessions removed", "count", deleted)
			}
		}
	}
}
