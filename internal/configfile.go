package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/localshelf/internal/discovery"
	pkgconfig "github.com/starford/localshelf/pkg/config"
)

// Environment variables recognised by the configuration layer.
const (
	EnvConfigDir     = "LOCAL_SHELF_CONFIG_DIR"
	EnvSkipInit      = "LOCAL_SHELF_SKIP_CONFIG_INIT"
	EnvKnowledgeBase = "KNOWLEDGE_BASE"
	EnvInbox         = "LOCAL_SHELF_INBOX"
)

const (
	configDirName   = "local_shelf"
	legacyConfigDir = "local-shelf"
	configFileName  = "config.yaml"
)

const configHeader = `# Local Shelf Configuration
#
# shelf.knowledge_base_path: where Markdown files are organized
#   (overridden by the KNOWLEDGE_BASE environment variable)
# shelf.inbox_path: where "stow" looks for files by default
#   (overridden by the LOCAL_SHELF_INBOX environment variable)
# sqlite.path: index database; empty keeps it next to this file
`

// ConfigDir returns $LOCAL_SHELF_CONFIG_DIR, or local_shelf under the
// user configuration directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine config directory: %w", err)
	}
	return filepath.Join(base, configDirName), nil
}

// ConfigFilePath returns the path of config.yaml inside ConfigDir.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func legacyDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine config directory: %w", err)
	}
	return filepath.Join(base, legacyConfigDir), nil
}

// MigrateLegacy moves config.yaml from the old local-shelf directory when
// the new directory does not exist yet. It reports whether it migrated.
func MigrateLegacy() (bool, error) {
	legacy, err := legacyDir()
	if err != nil {
		return false, err
	}
	current, err := ConfigDir()
	if err != nil {
		return false, err
	}
	if !dirExists(legacy) || pathExists(current) {
		return false, nil
	}

	if err := os.MkdirAll(current, 0o755); err != nil {
		return false, fmt.Errorf("create config dir %s: %w", current, err)
	}
	oldFile := filepath.Join(legacy, configFileName)
	if pathExists(oldFile) {
		if err := copyConfig(oldFile, filepath.Join(current, configFileName)); err != nil {
			return false, err
		}
	}
	if err := os.RemoveAll(legacy); err != nil {
		return false, fmt.Errorf("remove legacy config dir %s: %w", legacy, err)
	}
	return true, nil
}

// Initialize prepares the configuration directory and writes a commented
// default config.yaml if none exists. It is a no-op when
// LOCAL_SHELF_SKIP_CONFIG_INIT is set.
func Initialize(logger *slog.Logger) error {
	if _, skip := os.LookupEnv(EnvSkipInit); skip {
		return nil
	}

	migrated, err := MigrateLegacy()
	if err != nil {
		return err
	}
	if migrated {
		logger.Info("config: migrated configuration",
			slog.String("from", legacyConfigDir),
			slog.String("to", configDirName))
	}

	file, err := ConfigFilePath()
	if err != nil {
		return err
	}
	if pathExists(file) {
		return nil
	}
	if err := pkgconfig.Save(file, configHeader, NewDefaultConfig()); err != nil {
		return err
	}
	logger.Info("config: wrote default configuration", slog.String("path", file))
	return nil
}

// LoadConfig builds the configuration from defaults, then the file at path
// (when it exists), then environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if pathExists(path) {
		if err := pkgconfig.Decode(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvKnowledgeBase); ok {
		cfg.Shelf.KnowledgeBasePath = v
	}
	if v, ok := os.LookupEnv(EnvInbox); ok {
		cfg.Shelf.InboxPath = v
	}
}

// SaveConfig validates cfg and atomically writes it to path.
func SaveConfig(cfg *Config, path string) error {
	if err := pkgconfig.Validate(cfg); err != nil {
		return err
	}
	return pkgconfig.Save(path, configHeader, cfg)
}

// UpdateKnowledgeBasePath points the knowledge base at newPath, creating the
// directory when missing, and saves cfg to file.
func UpdateKnowledgeBasePath(cfg *Config, newPath, file string) error {
	if strings.TrimSpace(newPath) == "" {
		return errors.New("knowledge_base_path cannot be empty")
	}
	if err := parentExists(newPath); err != nil {
		return err
	}
	expanded, err := discovery.ExpandHome(newPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(expanded, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %q: %w", expanded, err)
		}
	case err != nil:
		return fmt.Errorf("stat %q: %w", expanded, err)
	case !info.IsDir():
		return fmt.Errorf("path %q exists but is not a directory", expanded)
	}

	cfg.Shelf.KnowledgeBasePath = newPath
	return SaveConfig(cfg, file)
}

func copyConfig(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open legacy config: %w", err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy legacy config: %w", err)
	}
	return out.Close()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
