package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

const systemPrompt = `You are a bilingual English dictionary for Traditional Chinese learners.
Reply with a single JSON object:
{"phonetic": "IPA", "meanings": [{"part_of_speech": "n.", "meaning_zh": "...", "meaning_en": "...",
"synonyms": [], "antonyms": [], "examples": []}]}
Give every common part of speech, at most two examples per meaning.`

var ErrEmptyDetails = errors.New("generate: model returned no meanings")

type Details struct {
	Phonetic string       `json:"phonetic"`
	Meanings []db.Meaning `json:"meanings"`
}

// Apply copies the generated fields onto a card.
func (d Details) Apply(card *db.Card) {
	if d.Phonetic != "" {
		card.Phonetic = d.Phonetic
	}
	card.Meanings = datatypes.NewJSONSlice(d.Meanings)
}

type Generator struct {
	completer   Completer
	limiter     *rate.Limiter
	concurrency int
}

func NewGenerator(completer Completer, cfg config.AIConfig) *Generator {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Generator{
		completer:   completer,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: max(cfg.Concurrency, 1),
	}
}

func (g *Generator) Generate(ctx context.Context, headword string) (Details, error) {
	headword = strings.TrimSpace(headword)
	if headword == "" {
		return Details{}, db.ErrInvalidCard
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return Details{}, err
	}

	reply, err := g.completer.Complete(ctx, systemPrompt, "Word: "+headword)
	if err != nil {
		return Details{}, err
	}
	return parseDetails(reply)
}

func parseDetails(reply string) (Details, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var d Details
	if err := json.Unmarshal([]byte(reply), &d); err != nil {
		return Details{}, fmt.Errorf("decode model reply: %w", err)
	}
	d.Phonetic = strings.TrimSpace(d.Phonetic)
	d.Meanings = lo.Filter(d.Meanings, func(m db.Meaning, _ int) bool {
		return strings.TrimSpace(m.MeaningZh) != "" || strings.TrimSpace(m.MeaningEn) != ""
	})
	for i := range d.Meanings {
		m := &d.Meanings[i]
		m.Synonyms = lo.Ternary(m.Synonyms == nil, []string{}, m.Synonyms)
		m.Antonyms = lo.Ternary(m.Antonyms == nil, []string{}, m.Antonyms)
		m.Examples = lo.Ternary(m.Examples == nil, []string{}, m.Examples)
	}
	if len(d.Meanings) == 0 {
		return Details{}, ErrEmptyDetails
	}
	return d, nil
}

type Failure struct {
	CardID   string
	Headword string
	Err      error
}

type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// ApplyFunc persists the details generated for one card.
type ApplyFunc func(ctx context.Context, card db.Card, details Details) error

// RegenerateCards generates details for every card with bounded concurrency.
// A failing card is tallied and never stops the others; cards already applied
// stay applied. apply calls are serialised.
func (g *Generator) RegenerateCards(ctx context.Context, cards []db.Card, apply ApplyFunc) BatchResult {
	result := BatchResult{Total: len(cards)}
	failures := make([]*Failure, len(cards))

	var (
		group   errgroup.Group
		applyMu sync.Mutex
		countMu sync.Mutex
	)
	group.SetLimit(g.concurrency)

	for i, card := range cards {
		group.Go(func() error {
			err := g.regenerateOne(ctx, card, apply, &applyMu)
			countMu.Lock()
			defer countMu.Unlock()
			if err != nil {
				failures[i] = &Failure{CardID: card.ID, Headword: card.Headword, Err: err}
				result.Failed++
				logger.Warn("card regeneration failed", "card_id", card.ID, "headword", card.Headword, "error", err)
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = group.Wait()

	for _, f := range failures {
		if f != nil {
			result.Failures = append(result.Failures, *f)
		}
	}
	logger.Info("card regeneration finished",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed)
	return result
}

func (g *Generator) regenerateOne(ctx context.Context, card db.Card, apply ApplyFunc, mu *sync.Mutex) error {
	details, err := g.Generate(ctx, card.Headword)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	return apply(ctx, card, details)
}

// RegenerateWordbook rewrites phonetic and meanings of every card in a
// wordbook.
func (g *Generator) RegenerateWordbook(ctx context.Context, repo *db.Repository, wordbookID string) (BatchResult, error) {
	if _, err := repo.GetWordbook(ctx, wordbookID); err != nil {
		return BatchResult{}, err
	}
	cards, err := repo.ListCardsByWordbook(ctx, wordbookID)
	if err != nil {
		return BatchResult{}, err
	}
	return g.RegenerateCards(ctx, cards, UpdateCardApply(repo)), nil
}

// UpdateCardApply stores generated details on the existing card.
func UpdateCardApply(repo *db.Repository) ApplyFunc {
	return func(ctx context.Context, card db.Card, details Details) error {
		details.Apply(&card)
		return repo.UpdateCard(ctx, &card)
	}
}

// CreateCard generates details for a new headword and stores the card.
func (g *Generator) CreateCard(ctx context.Context, repo *db.Repository, wordbookID, headword string) (db.Card, error) {
	if _, err := repo.GetWordbook(ctx, wordbookID); err != nil {
		return db.Card{}, err
	}
	details, err := g.Generate(ctx, headword)
	if err != nil {
		return db.Card{}, err
	}
	card := db.Card{
		WordbookID: wordbookID,
		Headword:   strings.TrimSpace(headword),
		Tags:       datatypes.NewJSONSlice([]string{}),
	}
	details.Apply(&card)
	if err := repo.CreateCard(ctx, &card); err != nil {
		return db.Card{}, err
	}
	return card, nil
}
