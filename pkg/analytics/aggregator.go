package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
)

type Dashboard struct {
	Range         Range
	Accuracy      int
	CurrentStreak int
	LongestStreak int
	TotalCards    int
	// ReviewedCards counts cards reviewed inside the range.
	ReviewedCards int
	MasteredCards int
	Chart         []Bucket
	Levels        []LevelProgress
}

// Aggregator reads the store and never writes to it.
type Aggregator struct {
	repo *db.Repository
	loc  *time.Location
	now  func() time.Time
}

func NewAggregator(repo *db.Repository, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{repo: repo, loc: loc, now: time.Now}
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Snapshot(ctx context.Context) (Snapshot, error) {
	wordbooks, err := a.repo.ListWordbooks(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list wordbooks: %w", err)
	}
	cards, err := a.repo.ListCards(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list cards: %w", err)
	}
	stats, err := a.repo.ListCardStats(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list card stats: %w", err)
	}
	return Snapshot{
		Now:       a.now(),
		Location:  a.loc,
		Wordbooks: wordbooks,
		Cards:     cards,
		Stats:     stats,
	}, nil
}

func (a *Aggregator) Dashboard(ctx context.Context, r Range) (Dashboard, error) {
	snap, err := a.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Compute(snap, r), nil
}

// Compute builds the dashboard from a snapshot. Streaks always look at the
// full history; accuracy and the reviewed count honour the range.
func Compute(s Snapshot, r Range) Dashboard {
	inRange := s.InRange(r)
	days := ReviewDays(s.Stats, s.loc())
	reviewed := lo.Filter(inRange, func(st db.CardStats, _ int) bool { return st.ShownCount > 0 })
	mastered := lo.Filter(s.Stats, func(st db.CardStats, _ int) bool { return st.RightCount > st.WrongCount })

	return Dashboard{
		Range:         r,
		Accuracy:      Accuracy(inRange),
		CurrentStreak: CurrentStreak(days, s.Today()),
		LongestStreak: LongestStreak(days),
		TotalCards:    len(s.Cards),
		ReviewedCards: len(reviewed),
		MasteredCards: len(mastered),
		Chart:         Chart(s, r),
		Levels:        LevelProgressOf(s),
	}
}
