package analytics

import (
	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
)

// Bucket counts distinct cards first learned and cards reviewed in a period.
// A card whose last review falls in the bucket it was created in counts only
// as learned.
type Bucket struct {
	Label    string
	From     Day
	To       Day
	Learned  int
	Reviewed int
}

const (
	dailyBuckets   = 7
	weeklyBuckets  = 5
	monthlyBuckets = 12
)

// Chart returns 7 daily buckets for 7days, 5 rolling weeks for 30days and 12
// calendar months for all, oldest first.
func Chart(s Snapshot, r Range) []Bucket {
	today := s.Today()
	buckets := emptyBuckets(r, today)
	loc := s.loc()

	lastReviewed := lo.KeyBy(
		lo.Filter(s.Stats, func(st db.CardStats, _ int) bool { return st.LastReviewedAt != nil }),
		func(st db.CardStats) string { return st.CardID },
	)

	for _, c := range s.Cards {
		createdIdx, created := bucketIndex(r, DayOf(c.CreatedAt, loc), today)
		if created {
			buckets[createdIdx].Learned++
		}
		st, ok := lastReviewed[c.ID]
		if !ok {
			continue
		}
		reviewedIdx, reviewed := bucketIndex(r, DayOf(*st.LastReviewedAt, loc), today)
		if reviewed && !(created && createdIdx == reviewedIdx) {
			buckets[reviewedIdx].Reviewed++
		}
	}
	return buckets
}

func emptyBuckets(r Range, today Day) []Bucket {
	switch r {
	case Range30Days:
		out := make([]Bucket, weeklyBuckets)
		for i := range out {
			to := today.AddDays(-7 * (weeklyBuckets - 1 - i))
			from := to.AddDays(-6)
			out[i] = Bucket{Label: from.String()[5:] + "~" + to.String()[5:], From: from, To: to}
		}
		return out
	case RangeAll:
		out := make([]Bucket, monthlyBuckets)
		for i := range out {
			from := firstOfMonth(today, -(monthlyBuckets - 1 - i))
			next := firstOfMonth(today, -(monthlyBuckets - 2 - i))
			out[i] = Bucket{Label: from.String()[:7], From: from, To: next.AddDays(-1)}
		}
		return out
	default:
		out := make([]Bucket, dailyBuckets)
		for i := range out {
			d := today.AddDays(-(dailyBuckets - 1 - i))
			out[i] = Bucket{Label: d.String()[5:], From: d, To: d}
		}
		return out
	}
}

func bucketIndex(r Range, d, today Day) (int, bool) {
	switch r {
	case Range30Days:
		diff := daysBetween(d, today)
		if diff < 0 || diff >= 7*weeklyBuckets {
			return 0, false
		}
		return weeklyBuckets - 1 - diff/7, true
	case RangeAll:
		diff := monthsBetween(d, today)
		if diff < 0 || diff >= monthlyBuckets {
			return 0, false
		}
		return monthlyBuckets - 1 - diff, true
	default:
		diff := daysBetween(d, today)
		if diff < 0 || diff >= dailyBuckets {
			return 0, false
		}
		return dailyBuckets - 1 - diff, true
	}
}

func firstOfMonth(d Day, offset int) Day {
	y, m, _ := Day{Year: d.Year, Month: d.Month, Day: 1}.noon().AddDate(0, offset, 0).Date()
	return Day{Year: y, Month: m, Day: 1}
}
