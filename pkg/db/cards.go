package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

func (r *Repository) CreateCard(ctx context.Context, card *Card) error {
	card.Headword = strings.TrimSpace(card.Headword)
	if card.Headword == "" {
		return ErrInvalidCard
	}
	if _, err := r.GetWordbook(ctx, card.WordbookID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *Repository) GetCard(ctx context.Context, id string) (Card, error) {
	var card Card
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Card{}, ErrCardNotFound
	}
	return card, err
}

func (r *Repository) CardExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Card{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindCardByHeadword matches the headword case-insensitively within one
// wordbook.
func (r *Repository) FindCardByHeadword(ctx context.Context, wordbookID, headword string) (Card, bool, error) {
	var card Card
	err := r.db.WithContext(ctx).
		Where("wordbook_id = ? AND LOWER(headword) = LOWER(?)", wordbookID, strings.TrimSpace(headword)).
		Order("created_at ASC, id ASC").
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Card{}, false, nil
	}
	if err != nil {
		return Card{}, false, err
	}
	return card, true, nil
}

// ListCards returns every card in store order: ascending creation time, then id.
func (r *Repository) ListCards(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *Repository) ListCardsByWordbook(ctx context.Context, wordbookID string) ([]Card, error) {
	var cards []Card
	if err := r.db.WithContext(ctx).
		Where("wordbook_id = ?", wordbookID).
		Order("created_at ASC, id ASC").
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *Repository) UpdateCard(ctx context.Context, card *Card) error {
	card.Headword = strings.TrimSpace(card.Headword)
	if card.Headword == "" {
		return ErrInvalidCard
	}
	if _, err := r.GetWordbook(ctx, card.WordbookID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(card).
		Select("wordbook_id", "headword", "phonetic", "meanings", "notes", "star", "tags", "updated_at").
		Updates(card)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *Repository) error {
		res := tx.db.Where("id = ?", id).Delete(&Card{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCardNotFound
		}
		if err := tx.db.Where("card_id = ?", id).Delete(&CardStats{}).Error; err != nil {
			return err
		}
		return tx.db.Where("card_id = ?", id).Delete(&CardSRS{}).Error
	})
}
