package db

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultEase         = 2.5
	DefaultIntervalDays = 1
	DefaultDailyGoal    = 20
	SettingsID          = "default"
)

type Wordbook struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	Level       string    `json:"level,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Meaning struct {
	PartOfSpeech string   `json:"part_of_speech"`
	MeaningZh    string   `json:"meaning_zh,omitempty"`
	MeaningEn    string   `json:"meaning_en,omitempty"`
	Synonyms     []string `json:"synonyms"`
	Antonyms     []string `json:"antonyms"`
	Examples     []string `json:"examples"`
}

type Card struct {
	ID         string                       `gorm:"primaryKey;size:36" json:"id"`
	WordbookID string                       `gorm:"size:36;not null;index:idx_card_wordbook" json:"wordbook_id"`
	Headword   string                       `gorm:"not null" json:"headword"`
	Phonetic   string                       `json:"phonetic,omitempty"`
	Meanings   datatypes.JSONSlice[Meaning] `json:"meanings"`
	Notes      string                       `json:"notes,omitempty"`
	Star       bool                         `gorm:"not null" json:"star"`
	Tags       datatypes.JSONSlice[string]  `json:"tags"`
	CreatedAt  time.Time                    `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// CardStats and CardSRS are separate records keyed by card_id. They are
// created on the first review, never embedded in Card.
type CardStats struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	CardID         string     `gorm:"size:36;not null;uniqueIndex" json:"card_id"`
	ShownCount     int        `gorm:"not null" json:"shown_count"`
	RightCount     int        `gorm:"not null" json:"right_count"`
	WrongCount     int        `gorm:"not null" json:"wrong_count"`
	LastReviewedAt *time.Time `gorm:"index" json:"last_reviewed_at,omitempty"`
}

type CardSRS struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CardID       string    `gorm:"size:36;not null;uniqueIndex" json:"card_id"`
	Ease         float64   `gorm:"not null" json:"ease"`
	IntervalDays int       `gorm:"not null" json:"interval_days"`
	Repetitions  int       `gorm:"not null" json:"repetitions"`
	DueAt        time.Time `gorm:"not null;index" json:"due_at"`
}

func (CardSRS) TableName() string {
	return "card_srs"
}

type UserSettings struct {
	ID         string `gorm:"primaryKey;size:32" json:"id"`
	DailyGoal  int    `gorm:"not null" json:"daily_goal"`
	Theme      string `json:"theme"`
	TTSEnabled bool   `json:"tts_enabled"`
	// SelectedWordbookIDs narrows the global review modes; empty means all.
	SelectedWordbookIDs datatypes.JSONSlice[string] `json:"selected_wordbook_ids"`
	// ReminderHour overrides study.reminder_hour when set.
	ReminderHour       *int       `json:"reminder_hour,omitempty"`
	LastReminderSentAt *time.Time `json:"last_reminder_sent_at,omitempty"`
	LastBackupAt       *time.Time `json:"last_backup_at,omitempty"`
}

type ReviewSession struct {
	ID               uint           `gorm:"primaryKey"`
	ChatID           int64          `gorm:"uniqueIndex"`
	Mode             string         `gorm:"not null"`
	CardIDs          datatypes.JSON `gorm:"not null"`
	CurrentIndex     int            `gorm:"not null;default:0"`
	CurrentToken     string         `gorm:"not null;default:''"`
	CurrentMessageID int            `gorm:"not null;default:0"`
	CorrectCount     int            `gorm:"not null;default:0"`
	AnsweredCount    int            `gorm:"not null;default:0"`
	LastActivityAt   time.Time      `gorm:"not null"`
	ExpiresAt        time.Time      `gorm:"not null;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (w *Wordbook) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	stampCreation(&w.CreatedAt, &w.UpdatedAt)
	return nil
}

func (c *Card) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stampCreation(&c.CreatedAt, &c.UpdatedAt)
	return nil
}

func (s *CardStats) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *CardSRS) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// DefaultCardStats is the state of a card that was never reviewed.
func DefaultCardStats(cardID string) CardStats {
	return CardStats{CardID: cardID}
}

// DefaultCardSRS is the scheduling state of a card that was never reviewed:
// due immediately.
func DefaultCardSRS(cardID string, now time.Time) CardSRS {
	return CardSRS{
		CardID:       cardID,
		Ease:         DefaultEase,
		IntervalDays: DefaultIntervalDays,
		Repetitions:  0,
		DueAt:        Timestamp(now),
	}
}

func DefaultSettings() UserSettings {
	return UserSettings{
		ID:                  SettingsID,
		DailyGoal:           DefaultDailyGoal,
		Theme:               "system",
		SelectedWordbookIDs: datatypes.NewJSONSlice([]string{}),
	}
}

// Timestamp normalizes a time to the stored precision: UTC milliseconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Now is the gorm clock.
func Now() time.Time {
	return Timestamp(time.Now())
}

var creationClock struct {
	sync.Mutex
	last time.Time
}

// nextCreatedAt is Now, moved past the previously issued creation time so
// records created within the same millisecond keep their insertion order.
func nextCreatedAt() time.Time {
	creationClock.Lock()
	defer creationClock.Unlock()

	now := Now()
	if !now.After(creationClock.last) {
		now = creationClock.last.Add(time.Millisecond)
	}
	creationClock.last = now
	return now
}

// stampCreation fills unset creation times. Restored records keep theirs.
func stampCreation(createdAt, updatedAt *time.Time) {
	if createdAt.IsZero() {
		*createdAt = nextCreatedAt()
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}
