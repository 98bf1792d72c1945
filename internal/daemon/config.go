// Package daemon manages the lvlup runtime lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	API       APIConfig       `toml:"api"`
	Rollover  RolloverConfig  `toml:"rollover"`
	Reminders RemindersConfig `toml:"reminders"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// DataConfig locates the database.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// APIConfig controls the local HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// RolloverConfig controls the daily day-boundary job.
type RolloverConfig struct {
	At string `toml:"at"` // HH:mm local time
}

// RemindersConfig controls local task and goal reminders.
type RemindersConfig struct {
	Enabled     bool   `toml:"enabled"`
	LeadMinutes int    `toml:"lead_minutes"`
	QuietStart  string `toml:"quiet_start"`
	QuietEnd    string `toml:"quiet_end"`
	UntimedAt   string `toml:"untimed_at"` // tasks with a date but no time
	GoalAt      string `toml:"goal_at"`    // goal check-ins
}

// Policy returns the reminder timing policy.
func (r RemindersConfig) Policy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		LeadMinutes: r.LeadMinutes,
		QuietStart:  r.QuietStart,
		QuietEnd:    r.QuietEnd,
	}
}

// TelemetryConfig controls Prometheus exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // "info" or "debug"
	File  string `toml:"file"`  // empty logs to stderr
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	home := lvlupHome()
	policy := domain.DefaultNotificationPolicy()
	return Config{
		Data: DataConfig{Dir: home},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7420,
		},
		Rollover: RolloverConfig{At: "00:05"},
		Reminders: RemindersConfig{
			Enabled:     true,
			LeadMinutes: policy.LeadMinutes,
			QuietStart:  policy.QuietStart,
			QuietEnd:    policy.QuietEnd,
			UntimedAt:   "09:00",
			GoalAt:      "09:00",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads .env files, then $LVLUP_HOME/config.toml, then LVLUP_*
// environment overrides, falling back to defaults.
func LoadConfig() (Config, error) {
	loadDotEnv(".env")
	loadDotEnv(filepath.Join(lvlupHome(), ".env"))
	return LoadConfigFile(filepath.Join(lvlupHome(), "config.toml"))
}

// LoadConfigFile reads config from path. A missing file yields defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value formats so mistakes surface at start-up.
func (c Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("config: data.dir is required")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("config: api.port %d out of range", c.API.Port)
	}
	if _, _, err := calendar.ParseTime(c.Rollover.At); err != nil {
		return fmt.Errorf("config: rollover.at: %w", err)
	}
	if c.Reminders.LeadMinutes < 0 {
		return fmt.Errorf("config: reminders.lead_minutes must not be negative")
	}
	for name, v := range map[string]string{
		"reminders.quiet_start": c.Reminders.QuietStart,
		"reminders.quiet_end":   c.Reminders.QuietEnd,
		"reminders.untimed_at":  c.Reminders.UntimedAt,
		"reminders.goal_at":     c.Reminders.GoalAt,
	} {
		if v == "" {
			continue
		}
		if err := calendar.ValidateTime(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	switch c.Logging.Level {
	case "", "info", "debug":
	default:
		return fmt.Errorf("config: logging.level %q must be info or debug", c.Logging.Level)
	}
	return nil
}

// SaveConfig writes the config to $LVLUP_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(lvlupHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", path, err)
	}
}

// applyEnv overlays LVLUP_* variables onto cfg.
func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"LVLUP_DATA_DIR":    &cfg.Data.Dir,
		"LVLUP_API_HOST":    &cfg.API.Host,
		"LVLUP_ROLLOVER_AT": &cfg.Rollover.At,
		"LVLUP_QUIET_START": &cfg.Reminders.QuietStart,
		"LVLUP_QUIET_END":   &cfg.Reminders.QuietEnd,
		"LVLUP_LOG_LEVEL":   &cfg.Logging.Level,
		"LVLUP_LOG_FILE":    &cfg.Logging.File,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"LVLUP_API_PORT":     &cfg.API.Port,
		"LVLUP_LEAD_MINUTES": &cfg.Reminders.LeadMinutes,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"LVLUP_REMINDERS":  &cfg.Reminders.Enabled,
		"LVLUP_PROMETHEUS": &cfg.Telemetry.Prometheus,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// lvlupHome returns the lvlup data directory.
func lvlupHome() string {
	if env := os.Getenv("LVLUP_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lvlup")
}

// Home is exported for use by other packages.
func Home() string {
	return lvlupHome()
}
