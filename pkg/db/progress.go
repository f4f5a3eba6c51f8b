package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

func (r *Repository) GetCardStats(ctx context.Context, cardID string) (CardStats, bool, error) {
	var stats CardStats
	err := r.db.WithContext(ctx).Where("card_id = ?", cardID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CardStats{}, false, nil
	}
	if err != nil {
		return CardStats{}, false, err
	}
	return stats, true, nil
}

// CardStatsOrDefault never returns an absent record: a card that was never
// reviewed gets zero counters.
func (r *Repository) CardStatsOrDefault(ctx context.Context, cardID string) (CardStats, error) {
	stats, ok, err := r.GetCardStats(ctx, cardID)
	if err != nil {
		return CardStats{}, err
	}
	if !ok {
		return DefaultCardStats(cardID), nil
	}
	return stats, nil
}

func (r *Repository) ListCardStats(ctx context.Context) ([]CardStats, error) {
	var stats []CardStats
	if err := r.db.WithContext(ctx).Order("card_id ASC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// UpsertCardStats loads the stats of an existing card (or the defaults),
// applies mutate and persists the whole record.
func (r *Repository) UpsertCardStats(ctx context.Context, cardID string, mutate func(*CardStats)) (CardStats, error) {
	var out CardStats
	err := r.Transaction(ctx, func(tx *Repository) error {
		if err := tx.requireCard(ctx, cardID); err != nil {
			return err
		}
		stats, err := tx.CardStatsOrDefault(ctx, cardID)
		if err != nil {
			return err
		}
		if mutate != nil {
			mutate(&stats)
		}
		stats.CardID = cardID
		if stats.LastReviewedAt != nil {
			ts := Timestamp(*stats.LastReviewedAt)
			stats.LastReviewedAt = &ts
		}
		if err := tx.db.Save(&stats).Error; err != nil {
			return err
		}
		out = stats
		return nil
	})
	return out, err
}

func (r *Repository) GetCardSRS(ctx context.Context, cardID string) (CardSRS, bool, error) {
	var srs CardSRS
	err := r.db.WithContext(ctx).Where("card_id = ?", cardID).First(&srs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CardSRS{}, false, nil
	}
	if err != nil {
		return CardSRS{}, false, err
	}
	return srs, true, nil
}

func (r *Repository) CardSRSOrDefault(ctx context.Context, cardID string, now time.Time) (CardSRS, error) {
	srs, ok, err := r.GetCardSRS(ctx, cardID)
	if err != nil {
		return CardSRS{}, err
	}
	if !ok {
		return DefaultCardSRS(cardID, now), nil
	}
	return srs, nil
}

func (r *Repository) ListCardSRS(ctx context.Context) ([]CardSRS, error) {
	var records []CardSRS
	if err := r.db.WithContext(ctx).Order("card_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) UpsertCardSRS(ctx context.Context, cardID string, now time.Time, mutate func(*CardSRS)) (CardSRS, error) {
	var out CardSRS
	err := r.Transaction(ctx, func(tx *Repository) error {
		if err := tx.requireCard(ctx, cardID); err != nil {
			return err
		}
		srs, err := tx.CardSRSOrDefault(ctx, cardID, now)
		if err != nil {
			return err
		}
		if mutate != nil {
			mutate(&srs)
		}
		srs.CardID = cardID
		srs.DueAt = Timestamp(srs.DueAt)
		if err := tx.db.Save(&srs).Error; err != nil {
			return err
		}
		out = srs
		return nil
	})
	return out, err
}

// DueCards returns the SRS records with due_at <= now, earliest first.
func (r *Repository) DueCards(ctx context.Context, now time.Time) ([]CardSRS, error) {
	var records []CardSRS
	if err := r.db.WithContext(ctx).
		Where("due_at <= ?", Timestamp(now)).
		Order("due_at ASC, card_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) requireCard(ctx context.Context, cardID string) error {
	ok, err := r.CardExists(ctx, cardID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCardNotFound
	}
	return nil
}
