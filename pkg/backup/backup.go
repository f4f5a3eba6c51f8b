// Package backup exports the whole store to a single JSON document and
// restores it all-or-nothing.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

const (
	FormatVersion    = 1
	defaultBatchSize = 512
)

var (
	ErrUnsupportedVersion = errors.New("backup: unsupported format version")
	ErrInvalidDocument    = errors.New("backup: invalid document")
)

// Document is the on-disk format. Documents without a version field are
// read as version 1.
type Document struct {
	Version    int              `json:"version"`
	ExportedAt db.ISOTime       `json:"exported_at"`
	Wordbooks  []db.Wordbook    `json:"wordbooks"`
	Cards      []db.Card        `json:"cards"`
	CardStats  []db.CardStats   `json:"card_stats"`
	CardSRS    []db.CardSRS     `json:"card_srs"`
	Settings   *db.UserSettings `json:"settings,omitempty"`
}

type Service struct {
	repo      *db.Repository
	batchSize int
	now       func() time.Time
}

func NewService(repo *db.Repository) *Service {
	return &Service{repo: repo, batchSize: defaultBatchSize, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Snapshot reads every record kind into a document.
func (s *Service) Snapshot(ctx context.Context) (Document, error) {
	doc := Document{Version: FormatVersion, ExportedAt: db.ISOTime(db.Timestamp(s.now()))}

	var err error
	if doc.Wordbooks, err = s.repo.ListWordbooks(ctx); err != nil {
		return Document{}, fmt.Errorf("list wordbooks: %w", err)
	}
	if doc.Cards, err = s.repo.ListCards(ctx); err != nil {
		return Document{}, fmt.Errorf("list cards: %w", err)
	}
	if doc.CardStats, err = s.repo.ListCardStats(ctx); err != nil {
		return Document{}, fmt.Errorf("list card stats: %w", err)
	}
	if doc.CardSRS, err = s.repo.ListCardSRS(ctx); err != nil {
		return Document{}, fmt.Errorf("list card srs: %w", err)
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("load settings: %w", err)
	}
	doc.Settings = &settings
	return doc, nil
}

func (s *Service) Export(ctx context.Context, w io.Writer) (Document, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return Document{}, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Document{}, fmt.Errorf("encode backup: %w", err)
	}
	logger.Info("backup exported",
		"wordbooks", len(doc.Wordbooks),
		"cards", len(doc.Cards),
		"card_stats", len(doc.CardStats),
		"card_srs", len(doc.CardSRS))
	return doc, nil
}

func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version == 0 {
		doc.Version = FormatVersion
	}
	if doc.Version > FormatVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

// Import decodes and validates the whole document, then replaces every
// wordbook, card, stats and schedule record in one transaction.
func (s *Service) Import(ctx context.Context, r io.Reader) (Document, error) {
	doc, err := Decode(r)
	if err != nil {
		return Document{}, err
	}
	if err := s.Restore(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) Restore(ctx context.Context, doc Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	normalize(&doc)

	err := s.repo.Transaction(ctx, func(tx *db.Repository) error {
		gdb := tx.DB()
		for _, model := range []any{&db.CardSRS{}, &db.CardStats{}, &db.Card{}, &db.Wordbook{}} {
			if err := gdb.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		if len(doc.Wordbooks) > 0 {
			if err := gdb.CreateInBatches(&doc.Wordbooks, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert wordbooks: %w", err)
			}
		}
		if len(doc.Cards) > 0 {
			if err := gdb.CreateInBatches(&doc.Cards, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert cards: %w", err)
			}
		}
		if len(doc.CardStats) > 0 {
			if err := gdb.CreateInBatches(&doc.CardStats, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert card stats: %w", err)
			}
		}
		if len(doc.CardSRS) > 0 {
			if err := gdb.CreateInBatches(&doc.CardSRS, s.batchSize).Error; err != nil {
				return fmt.Errorf("insert card srs: %w", err)
			}
		}
		if doc.Settings != nil {
			if err := tx.SaveSettings(ctx, doc.Settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("backup import failed", "error", err)
		return err
	}
	logger.Info("backup imported",
		"wordbooks", len(doc.Wordbooks),
		"cards", len(doc.Cards),
		"card_stats", len(doc.CardStats),
		"card_srs", len(doc.CardSRS))
	return nil
}

// Validate checks references and uniqueness. Counter and schedule values are
// taken as they are.
func Validate(doc Document) error {
	books := make(map[string]struct{}, len(doc.Wordbooks))
	for i, wb := range doc.Wordbooks {
		if wb.ID == "" {
			return fmt.Errorf("%w: wordbook %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := books[wb.ID]; dup {
			return fmt.Errorf("%w: duplicate wordbook id %s", ErrInvalidDocument, wb.ID)
		}
		books[wb.ID] = struct{}{}
	}

	cards := make(map[string]struct{}, len(doc.Cards))
	for i, c := range doc.Cards {
		if c.ID == "" {
			return fmt.Errorf("%w: card %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := cards[c.ID]; dup {
			return fmt.Errorf("%w: duplicate card id %s", ErrInvalidDocument, c.ID)
		}
		if _, ok := books[c.WordbookID]; !ok {
			return fmt.Errorf("%w: card %s references unknown wordbook %s", ErrInvalidDocument, c.ID, c.WordbookID)
		}
		cards[c.ID] = struct{}{}
	}

	statCards := lo.Map(doc.CardStats, func(s db.CardStats, _ int) string { return s.CardID })
	if err := checkCardRefs("card_stats", statCards, cards); err != nil {
		return err
	}
	srsCards := lo.Map(doc.CardSRS, func(s db.CardSRS, _ int) string { return s.CardID })
	return checkCardRefs("card_srs", srsCards, cards)
}

func checkCardRefs(kind string, refs []string, cards map[string]struct{}) error {
	if dups := lo.FindDuplicates(refs); len(dups) > 0 {
		return fmt.Errorf("%w: %s has more than one record for card %s", ErrInvalidDocument, kind, dups[0])
	}
	for _, id := range refs {
		if _, ok := cards[id]; !ok {
			return fmt.Errorf("%w: %s references unknown card %s", ErrInvalidDocument, kind, id)
		}
	}
	return nil
}

func normalize(doc *Document) {
	for i := range doc.Wordbooks {
		doc.Wordbooks[i].CreatedAt = db.Timestamp(doc.Wordbooks[i].CreatedAt)
		doc.Wordbooks[i].UpdatedAt = db.Timestamp(doc.Wordbooks[i].UpdatedAt)
	}
	for i := range doc.Cards {
		doc.Cards[i].CreatedAt = db.Timestamp(doc.Cards[i].CreatedAt)
		doc.Cards[i].UpdatedAt = db.Timestamp(doc.Cards[i].UpdatedAt)
	}
	for i := range doc.CardStats {
		if at := doc.CardStats[i].LastReviewedAt; at != nil {
			ts := db.Timestamp(*at)
			doc.CardStats[i].LastReviewedAt = &ts
		}
	}
	for i := range doc.CardSRS {
		doc.CardSRS[i].DueAt = db.Timestamp(doc.CardSRS[i].DueAt)
	}
}
