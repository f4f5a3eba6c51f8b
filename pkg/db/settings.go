package db

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Settings returns the singleton settings row, or the defaults when it has
// not been saved yet.
func (r *Repository) Settings(ctx context.Context) (UserSettings, error) {
	var settings UserSettings
	err := r.db.WithContext(ctx).Where("id = ?", SettingsID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return UserSettings{}, err
	}
	if settings.SelectedWordbookIDs == nil {
		settings.SelectedWordbookIDs = datatypes.NewJSONSlice([]string{})
	}
	return settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings *UserSettings) error {
	settings.ID = SettingsID
	if settings.DailyGoal <= 0 {
		settings.DailyGoal = DefaultDailyGoal
	}
	if settings.SelectedWordbookIDs == nil {
		settings.SelectedWordbookIDs = datatypes.NewJSONSlice([]string{})
	}
	return r.db.WithContext(ctx).Save(settings).Error
}
