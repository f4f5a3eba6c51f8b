package db

import (
	"encoding/json"
	"time"
)

// ISOLayout is the JSON form of every stored timestamp: UTC with exactly
// three fraction digits, as produced by JavaScript's toISOString.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// ISOTime marshals as ISOLayout and accepts any RFC 3339 string.
type ISOTime time.Time

func (t ISOTime) Time() time.Time {
	return time.Time(t)
}

func (t ISOTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(ISOLayout))
}

func (t *ISOTime) UnmarshalJSON(data []byte) error {
	var parsed time.Time
	if err := parsed.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = ISOTime(parsed)
	return nil
}

func isoPtr(t *time.Time) *ISOTime {
	if t == nil {
		return nil
	}
	v := ISOTime(*t)
	return &v
}

// The models marshal their timestamps through ISOTime. Shadow fields win over
// the embedded ones because they sit at a shallower depth.

func (w Wordbook) MarshalJSON() ([]byte, error) {
	type plain Wordbook
	return json.Marshal(struct {
		plain
		CreatedAt ISOTime `json:"created_at"`
		UpdatedAt ISOTime `json:"updated_at"`
	}{plain(w), ISOTime(w.CreatedAt), ISOTime(w.UpdatedAt)})
}

func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	return json.Marshal(struct {
		plain
		CreatedAt ISOTime `json:"created_at"`
		UpdatedAt ISOTime `json:"updated_at"`
	}{plain(c), ISOTime(c.CreatedAt), ISOTime(c.UpdatedAt)})
}

func (s CardStats) MarshalJSON() ([]byte, error) {
	type plain CardStats
	return json.Marshal(struct {
		plain
		LastReviewedAt *ISOTime `json:"last_reviewed_at,omitempty"`
	}{plain(s), isoPtr(s.LastReviewedAt)})
}

func (s CardSRS) MarshalJSON() ([]byte, error) {
	type plain CardSRS
	return json.Marshal(struct {
		plain
		DueAt ISOTime `json:"due_at"`
	}{plain(s), ISOTime(s.DueAt)})
}

func (s UserSettings) MarshalJSON() ([]byte, error) {
	type plain UserSettings
	return json.Marshal(struct {
		plain
		LastReminderSentAt *ISOTime `json:"last_reminder_sent_at,omitempty"`
		LastBackupAt       *ISOTime `json:"last_backup_at,omitempty"`
	}{plain(s), isoPtr(s.LastReminderSentAt), isoPtr(s.LastBackupAt)})
}
