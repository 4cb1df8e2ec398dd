// Package config loads the ledgerbook configuration file.
//
// The file is TOML:
//
//	[server]
//	addr = ":8080"
//
//	[database]
//	path = "ledgerbook.db"
//
//	[recalc]
//	enabled = true
//	interval = "24h"
//
//	[locale]
//	default = "en"
//
// Missing keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcclellann/ledgerbook/pkg/settings"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Recalc   RecalcConfig   `toml:"recalc"`
	Locale   LocaleConfig   `toml:"locale"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RecalcConfig controls the periodic refresh of accrued loan amounts.
type RecalcConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

type LocaleConfig struct {
	Default string `toml:"default"`
}

func DefaultConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "ledgerbook.db"},
		Recalc:   RecalcConfig{Enabled: true, Interval: "24h"},
		Locale:   LocaleConfig{Default: string(settings.English)},
	}
}

// Load decodes the file at path over DefaultConfig. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that are parsed later on.
func (c Config) Validate() error {
	if _, err := c.RecalcInterval(); err != nil {
		return err
	}
	if _, err := settings.ParseLanguage(c.Locale.Default); err != nil {
		return fmt.Errorf("locale.default: %w", err)
	}
	return nil
}

// RecalcInterval parses Recalc.Interval.
func (c Config) RecalcInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Recalc.Interval)
	if err != nil {
		return 0, fmt.Errorf("recalc.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("recalc.interval: must be positive, got %s", d)
	}
	return d, nil
}

