package importexport

import (
	"context"
	"errors"
	"fmt"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

// ErrInvalidCSV wraps parse failures of an uploaded file.
var ErrInvalidCSV = errors.New("invalid csv")

type ImportResult struct {
	Wordbook db.Wordbook
	Inserted int
	Updated  int
	Skipped  int
}

// UpsertCards writes entries into a wordbook, matching existing cards by
// headword case-insensitively. All entries are applied in one transaction.
func UpsertCards(ctx context.Context, repo *db.Repository, wordbookID string, entries []Entry) (int, int, error) {
	inserted := 0
	updated := 0

	if len(entries) == 0 {
		return inserted, updated, nil
	}

	err := repo.Transaction(ctx, func(tx *db.Repository) error {
		for _, entry := range entries {
			existing, found, err := tx.FindCardByHeadword(ctx, wordbookID, entry.Headword)
			if err != nil {
				return err
			}
			if found {
				entry.toCard(&existing)
				if err := tx.UpdateCard(ctx, &existing); err != nil {
					return fmt.Errorf("update %q: %w", entry.Headword, err)
				}
				updated++
				continue
			}

			card := db.Card{WordbookID: wordbookID}
			entry.toCard(&card)
			if err := tx.CreateCard(ctx, &card); err != nil {
				return fmt.Errorf("create %q: %w", entry.Headword, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

// ImportCSV parses data and imports it into the wordbook with the given
// name, creating the wordbook when it does not exist yet.
func ImportCSV(ctx context.Context, repo *db.Repository, wordbookName string, data []byte) (ImportResult, error) {
	parsed, err := ParseCardsCSV(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	wb, found, err := repo.FindWordbookByName(ctx, wordbookName)
	if err != nil {
		return ImportResult{}, err
	}
	if !found {
		if len(parsed.Entries) == 0 {
			return ImportResult{Skipped: parsed.Skipped}, nil
		}
		wb = db.Wordbook{Name: wordbookName}
		if err := repo.CreateWordbook(ctx, &wb); err != nil {
			return ImportResult{}, err
		}
		logger.Info("wordbook created for import", "wordbook_id", wb.ID, "name", wb.Name)
	}

	inserted, updated, err := UpsertCards(ctx, repo, wb.ID, parsed.Entries)
	if err != nil {
		return ImportResult{}, err
	}
	logger.Info("csv imported",
		"wordbook_id", wb.ID,
		"inserted", inserted,
		"updated", updated,
		"skipped", parsed.Skipped)
	return ImportResult{Wordbook: wb, Inserted: inserted, Updated: updated, Skipped: parsed.Skipped}, nil
}

// ExportWordbook renders a wordbook's cards in store order.
func ExportWordbook(ctx context.Context, repo *db.Repository, wordbookID string) (db.Wordbook, []byte, error) {
	wb, err := repo.GetWordbook(ctx, wordbookID)
	if err != nil {
		return db.Wordbook{}, nil, err
	}
	cards, err := repo.ListCardsByWordbook(ctx, wordbookID)
	if err != nil {
		return db.Wordbook{}, nil, err
	}
	data, err := BuildExportCSV(cards)
	if err != nil {
		return db.Wordbook{}, nil, err
	}
	return wb, data, nil
}
