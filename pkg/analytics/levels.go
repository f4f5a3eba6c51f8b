package analytics

import (
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

var levelOrder = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Keywords are matched as case-insensitive substrings of the wordbook level,
// Beginner first. Anything unmatched is Advanced.
var levelKeywords = []struct {
	level    Level
	keywords []string
}{
	{LevelBeginner, []string{"國小", "國中", "初級", "入門", "基礎", "beginner", "elementary", "basic"}},
	{LevelIntermediate, []string{"高中", "中級", "多益", "toeic", "toefl", "ielts", "intermediate"}},
}

func ClassifyLevel(level string) Level {
	value := strings.ToLower(strings.TrimSpace(level))
	if value == "" {
		return LevelAdvanced
	}
	for _, group := range levelKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(value, kw) {
				return group.level
			}
		}
	}
	return LevelAdvanced
}

type LevelProgress struct {
	Level    Level
	Total    int
	Mastered int
	Percent  int
}

// LevelProgressOf buckets every card by its wordbook level. A card is mastered
// when right > wrong. Levels without cards are omitted.
func LevelProgressOf(s Snapshot) []LevelProgress {
	books := lo.KeyBy(s.Wordbooks, func(w db.Wordbook) string { return w.ID })
	stats := lo.KeyBy(s.Stats, func(st db.CardStats) string { return st.CardID })

	totals := map[Level]*LevelProgress{}
	for _, c := range s.Cards {
		level := ClassifyLevel(books[c.WordbookID].Level)
		p, ok := totals[level]
		if !ok {
			p = &LevelProgress{Level: level}
			totals[level] = p
		}
		p.Total++
		if st, ok := stats[c.ID]; ok && st.RightCount > st.WrongCount {
			p.Mastered++
		}
	}

	out := make([]LevelProgress, 0, len(totals))
	for _, level := range levelOrder {
		p, ok := totals[level]
		if !ok {
			continue
		}
		p.Percent = int(math.Round(100 * float64(p.Mastered) / float64(p.Total)))
		out = append(out, *p)
	}
	return out
}
