package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return configPath
}

func TestLoadConfigSuccess(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	configPath := writeConfig(t, `{
		"database": {
			"driver": "postgres",
			"host": "localhost",
			"user": "test-user",
			"password": "test-pass",
			"dbname": "testdb",
			"port": 5433,
			"sslmode": "disable"
		},
		"telegram": {
			"token": "test-token",
			"owner_id": 42
		},
		"ai": {
			"timeout": "5s"
		},
		"study": {
			"timezone": "UTC",
			"frequent_errors_top_n": 10
		}
	}`)

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "localhost" {
		t.Errorf("expected host to be localhost, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 5433 {
		t.Errorf("expected port to be 5433, got %d", AppConfig.Database.Port)
	}
	if AppConfig.Telegram.Token != "test-token" || AppConfig.Telegram.OwnerID != 42 {
		t.Errorf("unexpected telegram config: %+v", AppConfig.Telegram)
	}
	if AppConfig.AI.Timeout != 5*time.Second {
		t.Errorf("expected ai timeout 5s, got %v", AppConfig.AI.Timeout)
	}
	if AppConfig.AI.Model != "gpt-4o-mini" {
		t.Errorf("expected default ai model, got %q", AppConfig.AI.Model)
	}
	if AppConfig.Study.FrequentErrorsTopN != 10 || AppConfig.Study.SessionSize != 20 {
		t.Errorf("unexpected study config: %+v", AppConfig.Study)
	}
}

func TestLoadConfigDefaultsToSQLite(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "vocab.db" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	loc, err := cfg.Study.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local timezone by default, got %v (%v)", loc, err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VOCAB_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("VOCAB_STUDY_SESSION_SIZE", "7")

	cfg, err := Load(writeConfig(t, `{"database": {"path": "file.db"}}`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected env override for database path, got %q", cfg.Database.Path)
	}
	if cfg.Study.SessionSize != 7 {
		t.Errorf("expected env override for session size, got %d", cfg.Study.SessionSize)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad driver", `{"database": {"driver": "mysql"}}`, "Driver"},
		{"postgres without host", `{"database": {"driver": "postgres", "dbname": "x"}}`, "Host"},
		{"top n out of range", `{"study": {"frequent_errors_top_n": 101}}`, "FrequentErrorsTopN"},
		{"bad timezone", `{"study": {"timezone": "Mars/Olympus"}}`, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error when loading a missing config file")
	}
}
