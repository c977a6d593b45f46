// Package config loads findtext settings from YAML files and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/filescan"
	"github.com/Aman-CERP/findtext/internal/scanner"
	"github.com/Aman-CERP/findtext/internal/search"
)

// ProjectConfigNames are the project config files looked up in the search
// root, in order of preference.
var ProjectConfigNames = []string{".findtext.yaml", ".findtext.yml"}

// Config is the complete findtext configuration.
type Config struct {
	Version int           `yaml:"version"`
	Search  SearchConfig  `yaml:"search"`
	Walk    WalkConfig    `yaml:"walk"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	MCP     MCPConfig     `yaml:"mcp"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	// Concurrency is the number of files scanned at once (0 = number of CPUs).
	Concurrency int `yaml:"concurrency"`

	// BufferSize is the result channel capacity (0 = concurrency * 10).
	BufferSize int `yaml:"buffer_size"`

	// Encoding is the WHATWG label of the file encoding.
	Encoding string `yaml:"encoding"`

	// MaxLineBytes is the longest line accepted before a file is skipped.
	MaxLineBytes int `yaml:"max_line_bytes"`
}

// WalkConfig controls which files are searched.
type WalkConfig struct {
	Exclude            []string `yaml:"exclude"`
	RespectGitignore   bool     `yaml:"respect_gitignore"`
	SkipSymlinks       bool     `yaml:"skip_symlinks"`
	SkipUnreadableDirs bool     `yaml:"skip_unreadable_dirs"`
}

// OutputConfig controls how occurrences are printed.
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
	Color  string `yaml:"color"`  // auto, always or never
}

// HistoryConfig controls the search history database.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Dir       string `yaml:"dir"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// MCPConfig bounds the results returned by the MCP tool.
type MCPConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Encoding:     filescan.DefaultEncoding,
			MaxLineBytes: filescan.DefaultMaxLineBytes,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(DataDir(), "history.db"),
			MaxEntries: 500,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Dir:       filepath.Join(DataDir(), "logs"),
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		MCP: MCPConfig{
			DefaultLimit: 100,
			MaxLimit:     1000,
		},
	}
}

// DataDir is where findtext keeps logs and history.
// FINDTEXT_HOME overrides the default of ~/.findtext.
func DataDir() string {
	if dir := os.Getenv("FINDTEXT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".findtext")
	}
	return filepath.Join(home, ".findtext")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/findtext/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/findtext/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "findtext", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "findtext", "config.yaml")
	}
	return filepath.Join(home, ".config", "findtext", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// Load builds the configuration for a search rooted at dir. Layers are
// applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/findtext/config.yaml)
//  3. Project config (.findtext.yaml in dir)
//  4. Extra files, e.g. from --config
//  5. Environment variables (FINDTEXT_*)
func Load(dir string, extraFiles ...string) (*Config, error) {
	cfg := NewConfig()

	files := []string{}
	if UserConfigExists() {
		files = append(files, GetUserConfigPath())
	}
	if dir != "" {
		if path := ProjectConfigPath(dir); path != "" {
			files = append(files, path)
		}
	}
	files = append(files, extraFiles...)

	for _, path := range files {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML overlays the keys present in a YAML file. Exclude patterns
// accumulate across layers; every other key replaces the earlier value.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		code := fterrors.ErrCodeConfigNotFound
		if errors.Is(err, os.ErrPermission) {
			code = fterrors.ErrCodeConfigPermission
		}
		return fterrors.New(code, "failed to read config file "+path, err).WithDetail("path", path)
	}

	inherited := c.Walk.Exclude
	c.Walk.Exclude = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		c.Walk.Exclude = inherited
		return fterrors.ConfigError("failed to parse config file "+path, err).
			WithDetail("path", path).
			WithSuggestion("Run 'findtext config show' to see the expected keys")
	}

	c.Walk.Exclude = mergeExcludes(inherited, c.Walk.Exclude)
	slog.Debug("loaded config file", slog.String("path", path))
	return nil
}

func mergeExcludes(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, p := range append(append([]string{}, base...), extra...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// applyEnvOverrides applies FINDTEXT_* environment variables.
// Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FINDTEXT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.Concurrency = n
		}
	}
	if v := os.Getenv("FINDTEXT_ENCODING"); v != "" {
		c.Search.Encoding = v
	}
	if v := os.Getenv("FINDTEXT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("FINDTEXT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("FINDTEXT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FINDTEXT_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
	if v := os.Getenv("FINDTEXT_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("FINDTEXT_RESPECT_GITIGNORE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Walk.RespectGitignore = b
		}
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fterrors.ConfigError("invalid configuration: "+fmt.Sprintf(format, args...), nil)
	}

	if c.Search.Concurrency < 0 {
		return invalid("search.concurrency must be non-negative, got %d", c.Search.Concurrency)
	}
	if c.Search.BufferSize < 0 {
		return invalid("search.buffer_size must be non-negative, got %d", c.Search.BufferSize)
	}
	if c.Search.MaxLineBytes < 0 {
		return invalid("search.max_line_bytes must be non-negative, got %d", c.Search.MaxLineBytes)
	}
	if err := filescan.ValidateEncoding(c.Search.Encoding); err != nil {
		return invalid("search.encoding %q is not a known encoding", c.Search.Encoding)
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json":
	default:
		return invalid("output.format must be 'text' or 'json', got %s", c.Output.Format)
	}
	switch strings.ToLower(c.Output.Color) {
	case "auto", "always", "never":
	default:
		return invalid("output.color must be 'auto', 'always' or 'never', got %s", c.Output.Color)
	}

	if c.History.MaxEntries < 0 {
		return invalid("history.max_entries must be non-negative, got %d", c.History.MaxEntries)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	if c.MCP.DefaultLimit <= 0 || c.MCP.MaxLimit <= 0 {
		return invalid("mcp limits must be positive")
	}
	if c.MCP.DefaultLimit > c.MCP.MaxLimit {
		return invalid("mcp.default_limit (%d) exceeds mcp.max_limit (%d)", c.MCP.DefaultLimit, c.MCP.MaxLimit)
	}

	return nil
}

// SearchOptions converts the configuration into engine options.
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		Concurrency:  c.Search.Concurrency,
		BufferSize:   c.Search.BufferSize,
		Encoding:     c.Search.Encoding,
		MaxLineBytes: c.Search.MaxLineBytes,
		Walk: scanner.WalkOptions{
			Exclude:            c.Walk.Exclude,
			RespectGitignore:   c.Walk.RespectGitignore,
			SkipSymlinks:       c.Walk.SkipSymlinks,
			SkipUnreadableDirs: c.Walk.SkipUnreadableDirs,
		},
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
