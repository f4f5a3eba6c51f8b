package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Transaction runs fn against a repository bound to a single transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) CreateWordbook(ctx context.Context, wb *Wordbook) error {
	wb.Name = strings.TrimSpace(wb.Name)
	if wb.Name == "" {
		return ErrInvalidWordbook
	}
	return r.db.WithContext(ctx).Create(wb).Error
}

func (r *Repository) GetWordbook(ctx context.Context, id string) (Wordbook, error) {
	var wb Wordbook
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&wb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wordbook{}, ErrWordbookNotFound
	}
	return wb, err
}

func (r *Repository) FindWordbookByName(ctx context.Context, name string) (Wordbook, bool, error) {
	var wb Wordbook
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		Order("created_at ASC, id ASC").
		First(&wb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wordbook{}, false, nil
	}
	if err != nil {
		return Wordbook{}, false, err
	}
	return wb, true, nil
}

func (r *Repository) ListWordbooks(ctx context.Context) ([]Wordbook, error) {
	var wordbooks []Wordbook
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&wordbooks).Error; err != nil {
		return nil, err
	}
	return wordbooks, nil
}

func (r *Repository) UpdateWordbook(ctx context.Context, wb *Wordbook) error {
	wb.Name = strings.TrimSpace(wb.Name)
	if wb.Name == "" {
		return ErrInvalidWordbook
	}
	res := r.db.WithContext(ctx).Model(wb).
		Select("name", "description", "level", "updated_at").
		Updates(wb)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWordbookNotFound
	}
	return nil
}

// DeleteWordbook removes the wordbook with its cards and their review records.
func (r *Repository) DeleteWordbook(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *Repository) error {
		if _, err := tx.GetWordbook(ctx, id); err != nil {
			return err
		}
		cardIDs := tx.db.Model(&Card{}).Select("id").Where("wordbook_id = ?", id)
		if err := tx.db.Where("card_id IN (?)", cardIDs).Delete(&CardStats{}).Error; err != nil {
			return err
		}
		if err := tx.db.Where("card_id IN (?)", cardIDs).Delete(&CardSRS{}).Error; err != nil {
			return err
		}
		if err := tx.db.Where("wordbook_id = ?", id).Delete(&Card{}).Error; err != nil {
			return err
		}
		return tx.db.Where("id = ?", id).Delete(&Wordbook{}).Error
	})
}
