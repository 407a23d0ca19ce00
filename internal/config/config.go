// Package config loads the front-end settings from an optional YAML file and
// BOOKSHELF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the data directory when no
// explicit file is given.
const FileName = "bookshelf.yaml"

// Config holds the settings shared by both front-ends.
type Config struct {
	// Backend selects the Library Manager store.
	Backend string `mapstructure:"backend" validate:"required,oneof=csv sqlite"`
	// DataFile is the semicolon-separated catalog of the csv backend.
	DataFile string `mapstructure:"data_file" validate:"required"`
	// Database is the SQLite file of the sqlite backend.
	Database string `mapstructure:"database" validate:"required"`
	// ViewerFile is the tab-separated catalog of the Books Viewer.
	ViewerFile string `mapstructure:"viewer_file" validate:"required"`
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Load reads the configuration. Defaults are rooted at dir. When file is
// empty, dir/bookshelf.yaml is used if it exists; an explicit file must
// exist. Environment variables override the file.
func Load(file, dir string) (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", "csv")
	v.SetDefault("data_file", filepath.Join(dir, "library.csv"))
	v.SetDefault("database", filepath.Join(dir, "library.db"))
	v.SetDefault("viewer_file", filepath.Join(dir, "books.tsv"))
	v.SetDefault("log_level", "info")
	v.SetEnvPrefix("BOOKSHELF")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigFile(filepath.Join(dir, FileName))
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AppDir returns the directory of the running executable, where the catalog
// files live by default. It falls back to the working directory.
func AppDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
