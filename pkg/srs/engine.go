// Package srs implements the SM-2 scheduling step and the per-answer
// bookkeeping built on top of it.
package srs

import (
	"math"
	"time"

	"github.com/smith3v/vocab-srs/pkg/db"
)

const (
	EaseFloor = 1.3

	QualityCorrect   = 5
	QualityIncorrect = 2
	// PassingQuality is the lowest quality that counts as recalled.
	PassingQuality = 3

	secondIntervalDays = 6
)

// State is the part of CardSRS the scheduling step reads.
type State struct {
	Ease         float64
	IntervalDays int
	Repetitions  int
}

// Review is the complete next scheduling state. Callers persist all of it.
type Review struct {
	Ease         float64
	IntervalDays int
	Repetitions  int
	DueAt        time.Time
}

func StateOf(record db.CardSRS) State {
	return State{
		Ease:         record.Ease,
		IntervalDays: record.IntervalDays,
		Repetitions:  record.Repetitions,
	}
}

// Apply copies the review onto a stored record, keeping its identity fields.
func (r Review) Apply(record *db.CardSRS) {
	record.Ease = r.Ease
	record.IntervalDays = r.IntervalDays
	record.Repetitions = r.Repetitions
	record.DueAt = r.DueAt
}

// Quality maps the binary answer signal onto the SM-2 scale.
func Quality(correct bool) int {
	if correct {
		return QualityCorrect
	}
	return QualityIncorrect
}

// NextReview computes the state after answering with the given quality.
// Quality outside [0,5] is clamped.
func NextReview(state State, quality int, now time.Time) Review {
	quality = clampQuality(quality)

	if quality < PassingQuality {
		return Review{
			Ease:         maxEase(state.Ease - 0.2),
			IntervalDays: 1,
			Repetitions:  0,
			DueAt:        now.AddDate(0, 0, 1),
		}
	}

	miss := float64(5 - quality)
	ease := maxEase(state.Ease + (0.1 - miss*(0.08+miss*0.02)))

	var interval int
	switch state.Repetitions {
	case 0:
		interval = 1
	case 1:
		interval = secondIntervalDays
	default:
		interval = int(math.Round(float64(state.IntervalDays) * ease))
	}

	return Review{
		Ease:         ease,
		IntervalDays: interval,
		Repetitions:  state.Repetitions + 1,
		DueAt:        now.AddDate(0, 0, interval),
	}
}

// IsDue reports whether dueAt has been reached. A card due exactly now is due.
func IsDue(dueAt, now time.Time) bool {
	return !dueAt.After(now)
}

// ErrorRate returns wrong/shown as an unrounded percentage, or 0 when the
// card was never shown.
func ErrorRate(wrong, shown int) float64 {
	if shown == 0 {
		return 0
	}
	return float64(wrong) / float64(shown) * 100
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 5 {
		return 5
	}
	return q
}

func maxEase(ease float64) float64 {
	if ease < EaseFloor {
		return EaseFloor
	}
	return ease
}
