package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LVLUP_HOME", "/tmp/lvlup-test")
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7420)
	}
	if cfg.Data.Dir != "/tmp/lvlup-test" {
		t.Errorf("Data.Dir = %q, want LVLUP_HOME", cfg.Data.Dir)
	}
	if cfg.Rollover.At != "00:05" {
		t.Errorf("Rollover.At = %q, want %q", cfg.Rollover.At, "00:05")
	}
	if p := cfg.Reminders.Policy(); p.LeadMinutes != 15 || p.QuietStart != "22:00" || p.QuietEnd != "07:00" {
		t.Errorf("Reminders.Policy() = %+v", p)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigFile_MissingUsesDefaults(t *testing.T) {
	t.Setenv("LVLUP_HOME", t.TempDir())
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.API.Port != 7420 {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoadConfigFile_TOML(t *testing.T) {
	t.Setenv("LVLUP_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[api]
port = 9000

[rollover]
at = "03:30"

[reminders]
enabled = false
quiet_start = "23:00"

[telemetry]
prometheus = true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.API.Port != 9000 || cfg.Rollover.At != "03:30" {
		t.Errorf("api/rollover = %d/%q", cfg.API.Port, cfg.Rollover.At)
	}
	if cfg.Reminders.Enabled || cfg.Reminders.QuietStart != "23:00" || cfg.Reminders.QuietEnd != "07:00" {
		t.Errorf("reminders = %+v", cfg.Reminders)
	}
	if !cfg.Telemetry.Prometheus {
		t.Error("telemetry.prometheus should be true")
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("unset keys keep defaults, host = %q", cfg.API.Host)
	}
}

func TestLoadConfigFile_EnvOverrides(t *testing.T) {
	t.Setenv("LVLUP_HOME", t.TempDir())
	t.Setenv("LVLUP_API_PORT", "8123")
	t.Setenv("LVLUP_PROMETHEUS", "true")
	t.Setenv("LVLUP_LOG_LEVEL", "debug")
	t.Setenv("LVLUP_ROLLOVER_AT", "01:00")

	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if cfg.API.Port != 8123 || !cfg.Telemetry.Prometheus || cfg.Logging.Level != "debug" || cfg.Rollover.At != "01:00" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		toml string
	}{
		{"bad port env", map[string]string{"LVLUP_API_PORT": "http"}, ""},
		{"bad bool env", map[string]string{"LVLUP_REMINDERS": "sometimes"}, ""},
		{"port out of range", nil, "[api]\nport = 70000\n"},
		{"bad rollover time", nil, "[rollover]\nat = \"midnight\"\n"},
		{"empty rollover time", nil, "[rollover]\nat = \"\"\n"},
		{"bad quiet hours", nil, "[reminders]\nquiet_end = \"7am\"\n"},
		{"negative lead", nil, "[reminders]\nlead_minutes = -5\n"},
		{"bad log level", nil, "[logging]\nlevel = \"trace\"\n"},
		{"malformed toml", nil, "[api\nport = 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LVLUP_HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.toml")
			if tt.toml != "" {
				if err := os.WriteFile(path, []byte(tt.toml), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := LoadConfigFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LVLUP_HOME", home)
	// Registered so t.Setenv restores the variable after godotenv sets it.
	t.Setenv("LVLUP_API_PORT", "")
	os.Unsetenv("LVLUP_API_PORT")

	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("LVLUP_API_PORT=7777\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 7777 {
		t.Errorf("API.Port = %d, want 7777 from .env", cfg.API.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("LVLUP_HOME", home)

	cfg := DefaultConfig()
	cfg.API.Port = 8800
	cfg.Reminders.LeadMinutes = 30
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	got, err := LoadConfigFile(filepath.Join(home, "config.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if got.API.Port != 8800 || got.Reminders.LeadMinutes != 30 {
		t.Errorf("round trip = %+v", got)
	}
}
