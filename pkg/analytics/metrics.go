// Package analytics derives dashboard statistics from review history.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
)

type Range string

const (
	Range7Days  Range = "7days"
	Range30Days Range = "30days"
	RangeAll    Range = "all"
)

func ParseRange(value string) (Range, error) {
	switch Range(strings.ToLower(strings.TrimSpace(value))) {
	case "", Range7Days:
		return Range7Days, nil
	case Range30Days:
		return Range30Days, nil
	case RangeAll:
		return RangeAll, nil
	default:
		return "", fmt.Errorf("unknown range %q", value)
	}
}

// Since returns the first day inside the range, or false for all.
func (r Range) Since(today Day) (Day, bool) {
	switch r {
	case Range7Days:
		return today.AddDays(-6), true
	case Range30Days:
		return today.AddDays(-29), true
	default:
		return Day{}, false
	}
}

// Snapshot is the full population the computations read.
type Snapshot struct {
	Now       time.Time
	Location  *time.Location
	Wordbooks []db.Wordbook
	Cards     []db.Card
	Stats     []db.CardStats
}

func (s Snapshot) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

func (s Snapshot) Today() Day {
	return DayOf(s.Now, s.loc())
}

// InRange keeps the stats whose last review falls inside the range.
func (s Snapshot) InRange(r Range) []db.CardStats {
	since, bounded := r.Since(s.Today())
	if !bounded {
		return s.Stats
	}
	loc := s.loc()
	return lo.Filter(s.Stats, func(st db.CardStats, _ int) bool {
		if st.LastReviewedAt == nil {
			return false
		}
		return !DayOf(*st.LastReviewedAt, loc).Before(since)
	})
}

// Accuracy is round(100*right/(right+wrong)), 0 when nothing was answered.
func Accuracy(stats []db.CardStats) int {
	right, total := 0, 0
	for _, s := range stats {
		right += s.RightCount
		total += s.RightCount + s.WrongCount
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(right) / float64(total)))
}

// ReviewDays returns the distinct calendar days with at least one review,
// ascending.
func ReviewDays(stats []db.CardStats, loc *time.Location) []Day {
	seen := make(map[Day]struct{}, len(stats))
	for _, s := range stats {
		if s.LastReviewedAt != nil {
			seen[DayOf(*s.LastReviewedAt, loc)] = struct{}{}
		}
	}
	days := lo.Keys(seen)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CurrentStreak counts consecutive review days ending today. A day without
// reviews today yields 0.
func CurrentStreak(days []Day, today Day) int {
	set := lo.KeyBy(days, func(d Day) Day { return d })
	streak := 0
	for d := today; lo.HasKey(set, d); d = d.AddDays(-1) {
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive days in an ascending,
// duplicate-free list.
func LongestStreak(days []Day) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
