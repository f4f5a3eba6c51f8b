package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/smith3v/vocab-srs/pkg/internal/testutil"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

func TestHandleExportNeedsWordbookName(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	withOwner(t, 0)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleExport(context.Background(), b, newTestUpdate("/export", 3))

	if got := client.lastMessageText(t); !strings.HasPrefix(got, "Usage: /export") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestHandleExportUnknownWordbook(t *testing.T) {
	testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	withOwner(t, 0)

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleExport(context.Background(), b, newTestUpdate("/export Missing", 3))

	if got := client.lastMessageText(t); got != `Wordbook "Missing" not found.` {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestHandleExportSendsCSV(t *testing.T) {
	repo := testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	withOwner(t, 0)
	seedWordbook(t, repo, "Core", "beta", "alpha")

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleExport(context.Background(), b, newTestUpdate("/export Core", 3))

	doc := client.lastRequestTo(t, "sendDocument")
	data, filename := client.field(t, doc, "document")
	if !strings.HasPrefix(filename, "wordbook-") || !strings.HasSuffix(filename, ".csv") {
		t.Fatalf("unexpected filename %q", filename)
	}
	if !strings.Contains(data, "headword") || !strings.Contains(data, "alpha") || !strings.Contains(data, "beta") {
		t.Fatalf("unexpected CSV content %q", data)
	}
}

func TestHandleBackupSendsJSON(t *testing.T) {
	repo := testutil.SetupTestDB(t)
	logger.SetLogLevel(logger.ERROR)
	withOwner(t, 0)
	seedWordbook(t, repo, "Core", "alpha")

	client := newMockClient()
	b := newTestTelegramBot(t, client)

	HandleBackup(context.Background(), b, newTestUpdate("/backup", 3))

	doc := client.lastRequestTo(t, "sendDocument")
	data, filename := client.field(t, doc, "document")
	if !strings.HasPrefix(filename, "vocab-backup-") || !strings.HasSuffix(filename, ".json") {
		t.Fatalf("unexpected filename %q", filename)
	}
	if !strings.Contains(data, `"version"`) || !strings.Contains(data, "alpha") {
		t.Fatalf("unexpected backup content %q", data)
	}
	caption, _ := client.field(t, doc, "caption")
	if caption != "Backup: 1 wordbooks, 1 cards." {
		t.Fatalf("unexpected caption %q", caption)
	}
}
