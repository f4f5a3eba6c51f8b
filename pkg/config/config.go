package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/spf13/viper"
)

const envPrefix = "VOCAB"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	AI       AIConfig       `mapstructure:"ai"`
	Study    StudyConfig    `mapstructure:"study"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path     string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host     string `mapstructure:"host" validate:"required_if=Driver postgres"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" validate:"required_if=Driver postgres"`
	Port     int    `mapstructure:"port" validate:"min=0,max=65535"`
	SSLMode  string `mapstructure:"sslmode"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// OwnerID is the only Telegram user the bot answers to.
	OwnerID int64 `mapstructure:"owner_id"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File      string `mapstructure:"file"`
	GormLevel string `mapstructure:"gorm_level" validate:"omitempty,oneof=silent error warn info"`
}

type AIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model             string        `mapstructure:"model" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"min=0"`
	Concurrency       int           `mapstructure:"concurrency" validate:"min=1,max=32"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"min=1"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=10"`
}

type StudyConfig struct {
	Timezone           string `mapstructure:"timezone"`
	FrequentErrorsTopN int    `mapstructure:"frequent_errors_top_n" validate:"min=1,max=100"`
	SessionSize        int    `mapstructure:"session_size" validate:"min=1,max=500"`
	ReminderHour       int    `mapstructure:"reminder_hour" validate:"min=0,max=23"`
	BackupDir          string `mapstructure:"backup_dir"`
}

// Location resolves the study timezone. An empty value means the process
// local timezone.
func (s StudyConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load study timezone %q: %w", name, err)
	}
	return loc, nil
}

var AppConfig = Default()

var validate = validator.New()

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "vocab.db",
			Port:    5432,
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:     "info",
			GormLevel: "warn",
		},
		AI: AIConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Timeout:           30 * time.Second,
			Concurrency:       3,
			RequestsPerMinute: 30,
			MaxRetries:        2,
		},
		Study: StudyConfig{
			FrequentErrorsTopN: 20,
			SessionSize:        20,
			ReminderHour:       9,
			BackupDir:          "backups",
		},
	}
}

func LoadConfig(filename string) error {
	cfg, err := Load(filename)
	if err != nil {
		logger.Error("failed to load config", "file", filename, "error", err)
		return err
	}
	AppConfig = *cfg
	return nil
}

// Load reads a JSON config file, applies VOCAB_* environment overrides
// (VOCAB_DATABASE_PATH, VOCAB_TELEGRAM_TOKEN, ...) and validates the result.
func Load(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(filename)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	if _, err := cfg.Study.Location(); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.host", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.sslmode", d.Database.SSLMode)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.owner_id", 0)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.gorm_level", d.Logging.GormLevel)

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", d.AI.BaseURL)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.concurrency", d.AI.Concurrency)
	v.SetDefault("ai.requests_per_minute", d.AI.RequestsPerMinute)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)

	v.SetDefault("study.timezone", "")
	v.SetDefault("study.frequent_errors_top_n", d.Study.FrequentErrorsTopN)
	v.SetDefault("study.session_size", d.Study.SessionSize)
	v.SetDefault("study.reminder_hour", d.Study.ReminderHour)
	v.SetDefault("study.backup_dir", d.Study.BackupDir)
}
