// Package config loads taskcal settings from defaults, an optional YAML file, an
// optional .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/google"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

// Config contains all runtime settings.
type Config struct {
	AppName string `yaml:"app_name"`
	DataDir string `yaml:"data_dir"`

	Storage StorageConfig `yaml:"storage"`
	Google  GoogleConfig  `yaml:"google"`

	// Timezone is an IANA name; empty means the system zone.
	Timezone string `yaml:"timezone"`

	// EventDuration is the length of calendar events for tasks with a time.
	// Zero, the default, makes the event end when it starts.
	EventDuration time.Duration `yaml:"event_duration"`

	// SyncTimeout bounds each background calendar sync; zero means no limit.
	SyncTimeout time.Duration `yaml:"sync_timeout"`

	Log LogConfig `yaml:"log"`
}

type StorageConfig struct {
	Backend        string `yaml:"backend"`
	Key            string `yaml:"key"`
	ValkeyURL      string `yaml:"valkey_url"`
	ValkeyPassword string `yaml:"valkey_password"`
	DatabaseURL    string `yaml:"database_url"`
}

type GoogleConfig struct {
	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	RedirectURL   string `yaml:"redirect_url"`
	APIKey        string `yaml:"api_key"`
	CalendarScope string `yaml:"calendar_scope"`
	CalendarID    string `yaml:"calendar_id"`
	Endpoint      string `yaml:"calendar_endpoint"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		AppName: "taskcal",
		DataDir: defaultDataDir(),
		Storage: StorageConfig{
			Backend: storage.TypeFile,
			Key:     task.DefaultStorageKey,
		},
		Google: GoogleConfig{
			CalendarID: calendar.DefaultCalendarID,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Load builds a Config. path is an optional YAML file (falls back to TASKCAL_CONFIG);
// envFile is an optional dotenv file whose values never override the real environment.
func Load(path, envFile string) (Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("TASKCAL_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppName, "TASKCAL_APP_NAME", "APP_NAME")
	setString(&c.DataDir, "TASKCAL_DATA_DIR")
	setString(&c.Storage.Backend, "TASKCAL_STORAGE")
	setString(&c.Storage.Key, "TASKCAL_STORAGE_KEY")
	setString(&c.Storage.ValkeyURL, "VALKEY_URL")
	setString(&c.Storage.ValkeyPassword, "VALKEY_PASSWORD")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")
	setString(&c.Google.APIKey, "GOOGLE_API_KEY")
	setString(&c.Google.CalendarScope, "GOOGLE_CALENDAR_SCOPE")
	setString(&c.Google.CalendarID, "GOOGLE_CALENDAR_ID")
	setString(&c.Google.Endpoint, "GOOGLE_CALENDAR_ENDPOINT")
	setString(&c.Timezone, "TASKCAL_TIMEZONE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setDuration(&c.EventDuration, "TASKCAL_EVENT_DURATION"); err != nil {
		return err
	}
	return setDuration(&c.SyncTimeout, "TASKCAL_SYNC_TIMEOUT")
}

// Validate rejects settings no component could work with.
func (c Config) Validate() error {
	if !slices.Contains(storage.ValidTypes, c.Storage.Backend) {
		return fmt.Errorf("invalid storage backend %q, must be one of: %s", c.Storage.Backend, strings.Join(storage.ValidTypes, ", "))
	}
	if err := storage.ValidateKey(c.Storage.Key); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case storage.TypeFile, storage.TypeNutsDB:
		if c.DataDir == "" {
			return fmt.Errorf("data directory is required for the %s backend", c.Storage.Backend)
		}
	case storage.TypeValkey:
		if c.Storage.ValkeyURL == "" {
			return fmt.Errorf("VALKEY_URL is required for the valkey backend")
		}
	case storage.TypePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.EventDuration < 0 {
		return fmt.Errorf("event duration must not be negative, got %s", c.EventDuration)
	}
	if c.SyncTimeout < 0 {
		return fmt.Errorf("sync timeout must not be negative, got %s", c.SyncTimeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json", c.Log.Format)
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// StorageOptions returns the options for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Type:           c.Storage.Backend,
		Dir:            c.DataDir,
		ValkeyURL:      c.Storage.ValkeyURL,
		ValkeyPassword: c.Storage.ValkeyPassword,
		DatabaseURL:    c.Storage.DatabaseURL,
	}
}

// OAuthOptions returns the Google sign-in options.
func (c Config) OAuthOptions() google.OAuthOptions {
	return google.OAuthOptions{
		ClientID:      c.Google.ClientID,
		ClientSecret:  c.Google.ClientSecret,
		RedirectURL:   c.Google.RedirectURL,
		CalendarScope: c.Google.CalendarScope,
	}
}

// LogOptions returns the logger options.
func (c Config) LogOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "taskcal")
	}
	return ".taskcal"
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
			return
		}
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s parse error: %w", key, err)
	}
	*dst = d
	return nil
}
