package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/localshelf/internal/discovery"
)

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Shelf   ShelfConfig       `yaml:"shelf"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Convert ConvertConfig     `yaml:"convert"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Shelf.Validate(); err != nil {
		return err
	}
	return c.Convert.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatAuto
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatAuto, LogFormatText, LogFormatJSON)),
	)
}

// ShelfConfig locates the knowledge base and the inbox files are collected from.
type ShelfConfig struct {
	KnowledgeBasePath string `yaml:"knowledge_base_path"`
	InboxPath         string `yaml:"inbox_path"`
}

// Validate validates the shelf configuration.
func (c *ShelfConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.KnowledgeBasePath,
			validation.By(notBlank("knowledge_base_path")),
			validation.By(parentExists),
		),
		validation.Field(&c.InboxPath, validation.By(notBlank("inbox_path"))),
	)
}

// KnowledgeBase returns the knowledge base path with ~ expanded.
func (c *ShelfConfig) KnowledgeBase() (string, error) {
	return discovery.ExpandHome(c.KnowledgeBasePath)
}

// Inbox returns the inbox path with ~ expanded.
func (c *ShelfConfig) Inbox() (string, error) {
	return discovery.ExpandHome(c.InboxPath)
}

// SQLiteConfig holds SQLite database configuration. An empty Path puts the
// index next to the configuration file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Resolve returns the database path, defaulting to <config dir>/index.db.
func (c *SQLiteConfig) Resolve() (string, error) {
	if c.Path != "" {
		return discovery.ExpandHome(c.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.db"), nil
}

// ConvertConfig holds document conversion settings.
type ConvertConfig struct {
	Pandoc  string `yaml:"pandoc"`
	Format  string `yaml:"format"`
	Workers int    `yaml:"workers"`
}

// Validate validates the convert configuration.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Pandoc, validation.Required),
		validation.Field(&c.Format, validation.By(notBlank("format"))),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(32)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatAuto,
		},
		Shelf: ShelfConfig{
			KnowledgeBasePath: "~/Knowledge Base",
			InboxPath:         "~/Downloads",
		},
		Convert: ConvertConfig{
			Pandoc:  "pandoc",
			Format:  "epub",
			Workers: 4,
		},
	}
}

func notBlank(field string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

// parentExists requires the parent of a (possibly ~-prefixed) path to exist.
func parentExists(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	expanded, err := discovery.ExpandHome(s)
	if err != nil {
		return err
	}
	parent := filepath.Dir(filepath.Clean(expanded))
	if _, err := os.Stat(parent); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("parent directory does not exist: %s", parent)
		}
		return err
	}
	return nil
}
