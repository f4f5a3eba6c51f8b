// Package queue assembles the ordered card sequence of a review session.
package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/srs"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Mode string

const (
	ModeDue             Mode = "due"
	ModeNew             Mode = "new"
	ModeFrequentErrors  Mode = "frequent-errors"
	ModeMixed           Mode = "mixed"
	ModeWordbookOrdered Mode = "wordbook-ordered"
	ModeWordbookRandom  Mode = "wordbook-random"
)

var Modes = []Mode{ModeDue, ModeNew, ModeFrequentErrors, ModeMixed, ModeWordbookOrdered, ModeWordbookRandom}

type Order string

const (
	OrderCreated      Order = "created"
	OrderAlphabetical Order = "alphabetical"
)

const DefaultTopN = 20

var ErrInvalidRequest = errors.New("invalid queue request")

// Request describes one session. WordbookID and Order apply to the
// per-wordbook modes, Filter to frequent-errors. SelectedWordbookIDs narrows
// the global modes; empty means every wordbook.
type Request struct {
	Mode                Mode
	WordbookID          string
	Order               Order
	Filter              Filter
	SelectedWordbookIDs []string
	// Limit caps the result; 0 means no cap.
	Limit int
}

func (m Mode) perWordbook() bool {
	return m == ModeWordbookOrdered || m == ModeWordbookRandom
}

func ParseMode(value string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == value {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, value)
}

// Builder is a read-only query over the store.
type Builder struct {
	repo    *db.Repository
	topN    int
	loc     *time.Location
	now     func() time.Time
	newRand func() *rand.Rand
}

func NewBuilder(repo *db.Repository, topN int, loc *time.Location) *Builder {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if loc == nil {
		loc = time.Local
	}
	return &Builder{
		repo: repo,
		topN: topN,
		loc:  loc,
		now:  time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithRand fixes the shuffle source.
func (b *Builder) WithRand(newRand func() *rand.Rand) *Builder {
	b.newRand = newRand
	return b
}

// Build returns the card ids of the session in presentation order. No
// qualifying cards is an empty slice, not an error.
func (b *Builder) Build(ctx context.Context, req Request) ([]string, error) {
	cards, err := b.BuildCards(ctx, req)
	if err != nil {
		return nil, err
	}
	return lo.Map(cards, func(c db.Card, _ int) string { return c.ID }), nil
}

func (b *Builder) BuildCards(ctx context.Context, req Request) ([]db.Card, error) {
	if err := b.validate(&req); err != nil {
		return nil, err
	}

	pop, err := b.load(ctx, req)
	if err != nil {
		return nil, err
	}
	now := b.now()

	var selected []db.Card
	switch req.Mode {
	case ModeDue:
		selected = lo.Filter(pop.cards, func(c db.Card, _ int) bool {
			record, ok := pop.srs[c.ID]
			return ok && srs.IsDue(record.DueAt, now)
		})
	case ModeNew:
		selected = lo.Filter(pop.cards, func(c db.Card, _ int) bool {
			stats, ok := pop.stats[c.ID]
			return !ok || stats.ShownCount == 0
		})
	case ModeFrequentErrors:
		selected = frequentErrors(pop, req.Filter)
	case ModeMixed, ModeWordbookRandom:
		selected = append([]db.Card(nil), pop.cards...)
		rng := b.newRand()
		rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
	case ModeWordbookOrdered:
		selected = append([]db.Card(nil), pop.cards...)
		if req.Order == OrderAlphabetical {
			sortAlphabetical(selected)
		}
	}

	if req.Limit > 0 && len(selected) > req.Limit {
		selected = selected[:req.Limit]
	}
	if selected == nil {
		selected = []db.Card{}
	}
	return selected, nil
}

func (b *Builder) validate(req *Request) error {
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return err
	}
	if req.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidRequest)
	}
	if req.Mode.perWordbook() && req.WordbookID == "" {
		return fmt.Errorf("%w: mode %s needs a wordbook", ErrInvalidRequest, req.Mode)
	}
	switch req.Order {
	case "":
		req.Order = OrderCreated
	case OrderCreated, OrderAlphabetical:
	default:
		return fmt.Errorf("%w: unknown order %q", ErrInvalidRequest, req.Order)
	}
	if req.Mode == ModeFrequentErrors {
		filter, err := req.Filter.normalize(b.topN)
		if err != nil {
			return err
		}
		req.Filter = filter
	}
	return nil
}

type population struct {
	cards []db.Card
	stats map[string]db.CardStats
	srs   map[string]db.CardSRS
}

// load resolves every candidate card with its stats and schedule before any
// selection happens.
func (b *Builder) load(ctx context.Context, req Request) (population, error) {
	var cards []db.Card
	if req.Mode.perWordbook() {
		if _, err := b.repo.GetWordbook(ctx, req.WordbookID); err != nil {
			return population{}, err
		}
		list, err := b.repo.ListCardsByWordbook(ctx, req.WordbookID)
		if err != nil {
			return population{}, fmt.Errorf("list wordbook cards: %w", err)
		}
		cards = list
	} else {
		list, err := b.repo.ListCards(ctx)
		if err != nil {
			return population{}, fmt.Errorf("list cards: %w", err)
		}
		cards = filterSelected(list, req.SelectedWordbookIDs)
	}

	stats, err := b.repo.ListCardStats(ctx)
	if err != nil {
		return population{}, fmt.Errorf("list card stats: %w", err)
	}
	records, err := b.repo.ListCardSRS(ctx)
	if err != nil {
		return population{}, fmt.Errorf("list card srs: %w", err)
	}

	return population{
		cards: cards,
		stats: lo.KeyBy(stats, func(s db.CardStats) string { return s.CardID }),
		srs:   lo.KeyBy(records, func(s db.CardSRS) string { return s.CardID }),
	}, nil
}

func filterSelected(cards []db.Card, wordbookIDs []string) []db.Card {
	if len(wordbookIDs) == 0 {
		return cards
	}
	selected := lo.KeyBy(wordbookIDs, func(id string) string { return id })
	return lo.Filter(cards, func(c db.Card, _ int) bool {
		return lo.HasKey(selected, c.WordbookID)
	})
}

type scoredCard struct {
	card  db.Card
	stats db.CardStats
	rate  float64
}

func frequentErrors(pop population, filter Filter) []db.Card {
	scored := make([]scoredCard, 0, len(pop.cards))
	for _, c := range pop.cards {
		stats, ok := pop.stats[c.ID]
		if !ok || stats.ShownCount == 0 || stats.WrongCount == 0 {
			continue
		}
		scored = append(scored, scoredCard{
			card:  c,
			stats: stats,
			rate:  srs.ErrorRate(stats.WrongCount, stats.ShownCount),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].rate > scored[j].rate
	})

	scored = filter.apply(scored)
	return lo.Map(scored, func(s scoredCard, _ int) db.Card { return s.card })
}

func sortAlphabetical(cards []db.Card) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(cards, func(i, j int) bool {
		return col.CompareString(cards[i].Headword, cards[j].Headword) < 0
	})
}
