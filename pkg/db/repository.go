package db

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

var fileLock *flock.Flock

// Models lists every table owned by this package, in migration order.
func Models() []any {
	return []any{&Wordbook{}, &Card{}, &CardStats{}, &CardSRS{}, &UserSettings{}, &ReviewSession{}}
}

func GormConfig() *gorm.Config {
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}
	return &gorm.Config{
		Logger:  gormLogger,
		NowFunc: Now,
	}
}

func InitDB(cfg config.DatabaseConfig) error {
	dialector, err := openDialector(cfg)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, GormConfig())
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		releaseLock()
		return err
	}
	if err := Migrate(DB); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		if closeErr := Close(); closeErr != nil {
			logger.Error("failed to close database", "error", closeErr)
		}
		return err
	}
	return nil
}

func Migrate(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	return gdb.AutoMigrate(Models()...)
}

func Close() error {
	defer releaseLock()
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	DB = nil
	return sqlDB.Close()
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		if err := acquireLock(cfg.Path); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.Path), nil
	case "postgres":
		dsn := "host=" + cfg.Host +
			" user=" + cfg.User +
			" password=" + cfg.Password +
			" dbname=" + cfg.DBName +
			" port=" + strconv.Itoa(cfg.Port) +
			" sslmode=" + cfg.SSLMode
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// acquireLock holds an exclusive lock next to the SQLite file for the life of
// the process. The store has a single writer.
func acquireLock(path string) error {
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	lockPath := filepath.Clean(path) + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrStoreLocked, lockPath)
	}
	fileLock = lock
	return nil
}

func releaseLock() {
	if fileLock == nil {
		return
	}
	if err := fileLock.Unlock(); err != nil {
		logger.Error("failed to release database lock", "path", fileLock.Path(), "error", err)
	}
	fileLock = nil
}

// Repository implements the storage contract of the scheduling core on top
// of gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// DB exposes the underlying handle for callers that need a transaction
// spanning several tables, such as backup import.
func (r *Repository) DB() *gorm.DB {
	return r.db
}
