// Package config loads chatline configuration from a TOML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultBaseURL is the chat service authority used when nothing else is configured.
const DefaultBaseURL = "http://127.0.0.1:5000"

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Remote service
	BaseURL        string        `toml:"base_url"`
	RequestTimeout time.Duration `toml:"-"`

	// Credential store
	StoreBackend string `toml:"store"`
	StateDir     string `toml:"state_dir"`

	// Chat view
	Markdown bool `toml:"markdown"`

	// Logging
	LogFile  string     `toml:"log_file"`
	LogLevel slog.Level `toml:"-"`
}

// fileConfig mirrors the TOML document. Durations and levels are kept as
// strings so they share parsing with the environment.
type fileConfig struct {
	Config
	RequestTimeout string `toml:"request_timeout"`
	LogLevel       string `toml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		StoreBackend: StoreFile,
		StateDir:     filepath.Join(userConfigDir(), "chatline"),
		Markdown:     true,
		LogFile:      filepath.Join(os.TempDir(), "chatline.log"),
		LogLevel:     slog.LevelInfo,
	}
}

// Load reads configuration. Precedence, lowest first: defaults, the TOML
// file ($CHATLINE_CONFIG or <config dir>/chatline/config.toml), .env in the
// working directory, environment variables. The result is not validated:
// callers apply their own overrides first and then call Validate.
func Load() (Config, error) {
	cfg := Defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	path := getEnv("CHATLINE_CONFIG", filepath.Join(userConfigDir(), "chatline", "config.toml"))
	if err := loadFile(path, &cfg); err != nil {
		return cfg, err
	}

	cfg.BaseURL = getEnv("CHATLINE_BASE_URL", cfg.BaseURL)
	cfg.StoreBackend = getEnv("CHATLINE_STORE", cfg.StoreBackend)
	cfg.StateDir = getEnv("CHATLINE_STATE_DIR", cfg.StateDir)
	cfg.LogFile = getEnv("CHATLINE_LOG_FILE", cfg.LogFile)
	if v := os.Getenv("CHATLINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv("CHATLINE_MARKDOWN"); v != "" {
		cfg.Markdown = parseBool(v)
	}
	if v := os.Getenv("CHATLINE_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse CHATLINE_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// loadFile merges the TOML file at path into cfg. A missing file is not an error.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{Config: *cfg}
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*cfg = fc.Config

	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := c.origin(); err != nil {
		return err
	}
	switch c.StoreBackend {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// Origin returns scheme://host[:port] of BaseURL. Stored credentials are scoped to it.
func (c Config) Origin() string {
	o, _ := c.origin()
	return o
}

func (c Config) origin() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q: missing host", c.BaseURL)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
