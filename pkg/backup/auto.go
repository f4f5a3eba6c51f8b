package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

// Filename is the dated name used for automatic backups.
func Filename(now time.Time) string {
	return fmt.Sprintf("vocab-backup-%s.json", now.Format("20060102"))
}

// AutoBackup writes at most one backup per calendar day into dir and records
// the time in settings. It reports the written path, or "" when today's
// backup already exists.
func (s *Service) AutoBackup(ctx context.Context, dir string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	now := s.now().In(loc)

	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if last := settings.LastBackupAt; last != nil && sameDay(last.In(loc), now) {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".vocab-backup-*.json")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := s.Export(ctx, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move backup file: %w", err)
	}

	stamp := db.Timestamp(now)
	settings.LastBackupAt = &stamp
	if err := s.repo.SaveSettings(ctx, &settings); err != nil {
		return "", fmt.Errorf("record backup time: %w", err)
	}
	logger.Info("automatic backup written", "path", path)
	return path, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
