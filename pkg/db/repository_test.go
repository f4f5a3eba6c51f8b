package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smith3v/vocab-srs/pkg/config"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func openTestRepository(t *testing.T) *Repository {
	t.Helper()
	name := fmt.Sprintf("file:db_pkg_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(name), &gorm.Config{NowFunc: Now})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return NewRepository(gdb)
}

func seedCard(t *testing.T, repo *Repository, headword string) (Wordbook, Card) {
	t.Helper()
	ctx := context.Background()
	wb := Wordbook{Name: "Core"}
	if err := repo.CreateWordbook(ctx, &wb); err != nil {
		t.Fatalf("failed to create wordbook: %v", err)
	}
	card := Card{WordbookID: wb.ID, Headword: headword}
	if err := repo.CreateCard(ctx, &card); err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	return wb, card
}

func TestMigrateCreatesTables(t *testing.T) {
	repo := openTestRepository(t)
	for _, table := range []string{"wordbooks", "cards", "card_stats", "card_srs", "user_settings", "review_sessions"} {
		if !repo.DB().Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestWordbookCRUD(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	if err := repo.CreateWordbook(ctx, &Wordbook{Name: "   "}); !errors.Is(err, ErrInvalidWordbook) {
		t.Fatalf("expected ErrInvalidWordbook, got %v", err)
	}

	wb := Wordbook{Name: " TOEFL Core ", Level: "TOEFL"}
	if err := repo.CreateWordbook(ctx, &wb); err != nil {
		t.Fatalf("create: %v", err)
	}
	if wb.ID == "" {
		t.Fatalf("expected generated id")
	}
	if wb.Name != "TOEFL Core" {
		t.Fatalf("expected trimmed name, got %q", wb.Name)
	}

	found, ok, err := repo.FindWordbookByName(ctx, "toefl core")
	if err != nil || !ok || found.ID != wb.ID {
		t.Fatalf("case-insensitive lookup failed: ok=%v err=%v found=%+v", ok, err, found)
	}

	wb.Description = "updated"
	if err := repo.UpdateWordbook(ctx, &wb); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetWordbook(ctx, wb.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "updated" {
		t.Fatalf("expected description to be updated, got %q", got.Description)
	}

	missing := Wordbook{ID: "missing", Name: "x"}
	if err := repo.UpdateWordbook(ctx, &missing); !errors.Is(err, ErrWordbookNotFound) {
		t.Fatalf("expected ErrWordbookNotFound on update, got %v", err)
	}
	if _, err := repo.GetWordbook(ctx, "missing"); !errors.Is(err, ErrWordbookNotFound) {
		t.Fatalf("expected ErrWordbookNotFound on get, got %v", err)
	}
}

func TestCreateCardRequiresWordbook(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	err := repo.CreateCard(ctx, &Card{WordbookID: "nope", Headword: "apple"})
	if !errors.Is(err, ErrWordbookNotFound) {
		t.Fatalf("expected ErrWordbookNotFound, got %v", err)
	}

	wb, _ := seedCard(t, repo, "apple")
	if err := repo.CreateCard(ctx, &Card{WordbookID: wb.ID, Headword: " "}); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected ErrInvalidCard, got %v", err)
	}
}

func TestCardMeaningsRoundTrip(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	wb, _ := seedCard(t, repo, "apple")

	card := Card{
		WordbookID: wb.ID,
		Headword:   "abandon",
		Meanings: datatypes.NewJSONSlice([]Meaning{{
			PartOfSpeech: "v.",
			MeaningZh:    "放棄",
			Synonyms:     []string{"desert", "forsake"},
			Examples:     []string{"They abandoned the car."},
		}}),
		Tags: datatypes.NewJSONSlice([]string{"gre"}),
	}
	if err := repo.CreateCard(ctx, &card); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Meanings) != 1 || got.Meanings[0].MeaningZh != "放棄" || len(got.Meanings[0].Synonyms) != 2 {
		t.Fatalf("unexpected meanings: %+v", got.Meanings)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "gre" {
		t.Fatalf("unexpected tags: %+v", got.Tags)
	}

	found, ok, err := repo.FindCardByHeadword(ctx, wb.ID, "ABANDON")
	if err != nil || !ok || found.ID != card.ID {
		t.Fatalf("headword lookup failed: ok=%v err=%v", ok, err)
	}
}

func TestListCardsStoreOrder(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	wb, first := seedCard(t, repo, "zebra")

	second := Card{WordbookID: wb.ID, Headword: "apple", CreatedAt: first.CreatedAt.Add(time.Second)}
	if err := repo.CreateCard(ctx, &second); err != nil {
		t.Fatalf("create: %v", err)
	}

	cards, err := repo.ListCardsByWordbook(ctx, wb.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != first.ID || cards[1].ID != second.ID {
		t.Fatalf("expected creation order, got %+v", cards)
	}
}

func TestSameMillisecondCardsKeepInsertionOrder(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	wb, first := seedCard(t, repo, "word-00")

	want := []string{first.ID}
	err := repo.Transaction(ctx, func(tx *Repository) error {
		for i := 1; i < 40; i++ {
			card := Card{WordbookID: wb.ID, Headword: fmt.Sprintf("word-%02d", i)}
			if err := tx.CreateCard(ctx, &card); err != nil {
				return err
			}
			want = append(want, card.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("create cards: %v", err)
	}

	cards, err := repo.ListCardsByWordbook(ctx, wb.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(cards))
	}
	for i, card := range cards {
		if card.ID != want[i] {
			t.Fatalf("card %d: expected %s, got %s (%s)", i, want[i], card.ID, card.Headword)
		}
		if i > 0 && !card.CreatedAt.After(cards[i-1].CreatedAt) {
			t.Fatalf("created_at not increasing at %d: %v <= %v", i, card.CreatedAt, cards[i-1].CreatedAt)
		}
	}
}

func TestExplicitCreatedAtIsKept(t *testing.T) {
	repo := openTestRepository(t)
	wb, _ := seedCard(t, repo, "first")
	at := time.Date(2024, 3, 1, 10, 0, 0, 120000000, time.UTC)

	card := Card{WordbookID: wb.ID, Headword: "restored", CreatedAt: at}
	if err := repo.CreateCard(context.Background(), &card); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetCard(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(at) || !got.UpdatedAt.Equal(at) {
		t.Fatalf("expected created and updated at %v, got %v / %v", at, got.CreatedAt, got.UpdatedAt)
	}
}

func TestCardStatsAndSRSDefaults(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	_, card := seedCard(t, repo, "apple")
	now := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)

	stats, err := repo.CardStatsOrDefault(ctx, card.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ShownCount != 0 || stats.LastReviewedAt != nil {
		t.Fatalf("expected zero stats, got %+v", stats)
	}

	srs, err := repo.CardSRSOrDefault(ctx, card.ID, now)
	if err != nil {
		t.Fatalf("srs: %v", err)
	}
	if srs.Ease != DefaultEase || srs.IntervalDays != DefaultIntervalDays || srs.Repetitions != 0 {
		t.Fatalf("unexpected default srs: %+v", srs)
	}
	if !srs.DueAt.Equal(Timestamp(now)) {
		t.Fatalf("expected default due at now, got %v", srs.DueAt)
	}

	if _, ok, _ := repo.GetCardSRS(ctx, card.ID); ok {
		t.Fatalf("defaults must not be persisted")
	}
}

func TestUpsertProgress(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	_, card := seedCard(t, repo, "apple")
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if _, err := repo.UpsertCardStats(ctx, card.ID, func(s *CardStats) {
			s.ShownCount++
			s.RightCount++
			s.LastReviewedAt = &now
		}); err != nil {
			t.Fatalf("upsert stats: %v", err)
		}
	}
	stats, ok, err := repo.GetCardStats(ctx, card.ID)
	if err != nil || !ok {
		t.Fatalf("expected stored stats: ok=%v err=%v", ok, err)
	}
	if stats.ShownCount != 2 || stats.RightCount != 2 {
		t.Fatalf("expected two updates on a single row, got %+v", stats)
	}

	due := now.Add(6 * 24 * time.Hour)
	if _, err := repo.UpsertCardSRS(ctx, card.ID, now, func(s *CardSRS) {
		s.IntervalDays = 6
		s.Repetitions = 2
		s.DueAt = due
	}); err != nil {
		t.Fatalf("upsert srs: %v", err)
	}
	records, err := repo.ListCardSRS(ctx)
	if err != nil {
		t.Fatalf("list srs: %v", err)
	}
	if len(records) != 1 || records[0].IntervalDays != 6 || !records[0].DueAt.Equal(due) {
		t.Fatalf("unexpected srs records: %+v", records)
	}

	if _, err := repo.UpsertCardStats(ctx, "missing", nil); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestDueCardsInclusiveBoundary(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	wb, due := seedCard(t, repo, "due")
	later := Card{WordbookID: wb.ID, Headword: "later"}
	if err := repo.CreateCard(ctx, &later); err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := repo.UpsertCardSRS(ctx, due.ID, now, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.UpsertCardSRS(ctx, later.ID, now, func(s *CardSRS) {
		s.DueAt = now.Add(time.Millisecond)
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records, err := repo.DueCards(ctx, now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(records) != 1 || records[0].CardID != due.ID {
		t.Fatalf("expected only the card due exactly now, got %+v", records)
	}
}

func TestDeleteWordbookCascades(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()
	wb, card := seedCard(t, repo, "apple")
	now := time.Now()

	if _, err := repo.UpsertCardStats(ctx, card.ID, func(s *CardStats) { s.ShownCount = 1 }); err != nil {
		t.Fatalf("upsert stats: %v", err)
	}
	if _, err := repo.UpsertCardSRS(ctx, card.ID, now, nil); err != nil {
		t.Fatalf("upsert srs: %v", err)
	}

	if err := repo.DeleteWordbook(ctx, wb.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, model := range []any{&Card{}, &CardStats{}, &CardSRS{}, &Wordbook{}} {
		var count int64
		if err := repo.DB().Model(model).Count(&count).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected %T rows to be removed, got %d", model, count)
		}
	}
	if err := repo.DeleteWordbook(ctx, wb.ID); !errors.Is(err, ErrWordbookNotFound) {
		t.Fatalf("expected ErrWordbookNotFound, got %v", err)
	}
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	settings, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.DailyGoal != DefaultDailyGoal || settings.Theme != "system" {
		t.Fatalf("unexpected defaults: %+v", settings)
	}

	settings.SelectedWordbookIDs = datatypes.NewJSONSlice([]string{"a", "b"})
	settings.DailyGoal = 0
	if err := repo.SaveSettings(ctx, &settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(saved.SelectedWordbookIDs) != 2 || saved.DailyGoal != DefaultDailyGoal {
		t.Fatalf("unexpected saved settings: %+v", saved)
	}
}

func TestSettingsSelectionNeverNil(t *testing.T) {
	repo := openTestRepository(t)
	ctx := context.Background()

	if DefaultSettings().SelectedWordbookIDs == nil {
		t.Fatalf("expected an empty default selection")
	}
	settings := UserSettings{DailyGoal: 10}
	if err := repo.SaveSettings(ctx, &settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	saved, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	data, err := json.Marshal(saved)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"selected_wordbook_ids":[]`) {
		t.Fatalf("expected an empty selection array, got %s", data)
	}
}

func TestOpenDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := openDialector(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.db")
	if err := acquireLock(path); err != nil {
		t.Fatalf("first lock: %v", err)
	}
	t.Cleanup(releaseLock)

	held := fileLock
	fileLock = nil
	err := acquireLock(path)
	fileLock = held
	if !errors.Is(err, ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
}

func TestInitDBReleasesLockWhenMigrationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := gdb.Exec("CREATE VIEW wordbooks AS SELECT 1 AS id").Error; err != nil {
		t.Fatalf("create view: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.Close()

	if err := InitDB(config.DatabaseConfig{Driver: "sqlite", Path: path}); err == nil {
		Close()
		t.Fatalf("expected migration to fail")
	}
	if DB != nil {
		t.Fatalf("expected the handle to be closed")
	}
	if err := acquireLock(path); err != nil {
		t.Fatalf("expected the lock to be free, got %v", err)
	}
	releaseLock()
}

func TestISOTimeLayout(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"2025-01-11T00:30:00.000Z"`, `"2025-01-11T00:30:00.000Z"`},
		{`"2025-01-11T00:30:00.120Z"`, `"2025-01-11T00:30:00.120Z"`},
		{`"2025-01-11T00:30:00Z"`, `"2025-01-11T00:30:00.000Z"`},
		{`"2025-01-05T08:30:00.123+08:00"`, `"2025-01-05T00:30:00.123Z"`},
	}
	for _, tc := range cases {
		var v ISOTime
		if err := json.Unmarshal([]byte(tc.in), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.in, err)
		}
		if string(out) != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.in, tc.want, out)
		}
	}

	srs := CardSRS{ID: "s", CardID: "c", DueAt: time.Date(2025, 1, 11, 0, 30, 0, 0, time.UTC)}
	data, err := json.Marshal(srs)
	if err != nil {
		t.Fatalf("marshal srs: %v", err)
	}
	if !strings.Contains(string(data), `"due_at":"2025-01-11T00:30:00.000Z"`) || strings.Count(string(data), "due_at") != 1 {
		t.Fatalf("unexpected srs json %s", data)
	}
}
