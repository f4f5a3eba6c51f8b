package analytics

import (
	"fmt"
	"time"
)

// Day is a calendar date in the study timezone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// noon avoids DST edges when doing day arithmetic.
func (d Day) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day {
	y, m, dd := d.noon().AddDate(0, 0, n).Date()
	return Day{Year: y, Month: m, Day: dd}
}

func (d Day) Before(other Day) bool {
	return d.noon().Before(other.noon())
}

// Start is local midnight of the day.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// daysBetween returns to-from in whole days.
func daysBetween(from, to Day) int {
	return int(to.noon().Sub(from.noon()).Hours() / 24)
}

func monthsBetween(from, to Day) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month)
}
