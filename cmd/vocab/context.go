package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/smith3v/vocab-srs/pkg/config"
	"github.com/smith3v/vocab-srs/pkg/db"
	"github.com/smith3v/vocab-srs/pkg/logger"
)

const defaultConfigPath = "config.json"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	repoOnce sync.Once
	repo     *db.Repository
	repoErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the config file once. A missing default config.json
// falls back to the built-in defaults; a missing explicit path is an error.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := defaultConfigPath
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}

		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
			cfg := config.Default()
			c.config = &cfg
		} else {
			cfg, err := config.Load(path)
			if err != nil {
				c.configErr = err
				return
			}
			c.config = cfg
		}
		config.AppConfig = *c.config

		// Command output owns stdout.
		if err := logger.Configure(logger.Options{
			Level:  c.config.Logging.Level,
			File:   c.config.Logging.File,
			Output: os.Stderr,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to configure logger: %v\n", err)
		}
	})
	return c.config, c.configErr
}

// repository opens the store on first use, so commands that never touch it
// do not take the database lock.
func (c *commandContext) repository() (*db.Repository, error) {
	c.repoOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.repoErr = err
			return
		}
		if err := db.InitDB(cfg.Database); err != nil {
			c.repoErr = fmt.Errorf("open database: %w", err)
			return
		}
		c.repo = db.NewRepository(db.DB)
	})
	return c.repo, c.repoErr
}

func (c *commandContext) location() *time.Location {
	cfg, err := c.ensureConfig()
	if err != nil {
		return time.Local
	}
	loc, err := cfg.Study.Location()
	if err != nil {
		return time.Local
	}
	return loc
}
