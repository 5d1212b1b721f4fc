package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKALERT_PROVIDER", "STOCKALERT_INTERVAL", "STOCKALERT_LOG_LEVEL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY", "SQLITE_PATH",
		"ALPHAVANTAGE_API_TOKEN", "FINNHUB_API_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "fake" || cfg.Interval != "5s" || cfg.DefaultCooldown != 300 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Cache.Path() != filepath.Join(dir, "cache", "cache_data.json") {
		t.Errorf("cache path = %s", cfg.Cache.Path())
	}
	if cfg.TelegramEnabled() || cfg.Database.SQLitePath != "" {
		t.Error("optional outputs should be off by default")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yml := `provider: yahoo
interval: 1m
cache:
  directory: state
  file_name: triggers.json
  max_files: 2
  max_file_size_bytes: 4096
database:
  sqlite_path: journal.db
log:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STOCKALERT_PROVIDER", "finnhub")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "99")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "finnhub" {
		t.Errorf("env should win, got %s", cfg.Provider)
	}
	if d, _ := cfg.IntervalDuration(); d != time.Minute {
		t.Errorf("interval = %v", d)
	}
	if cfg.Cache.Path() != filepath.Join(dir, "state", "triggers.json") || cfg.Cache.MaxFiles != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Database.SQLitePath != filepath.Join(dir, "journal.db") {
		t.Errorf("sqlite path = %s", cfg.Database.SQLitePath)
	}
	if !cfg.TelegramEnabled() || cfg.Log.Level != "debug" || !cfg.Log.Console {
		t.Errorf("unexpected %+v", cfg)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("cache: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadCredentials(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.env")
	second := filepath.Join(dir, "b.env")
	os.WriteFile(first, []byte("ALPHAVANTAGE_API_TOKEN=from-a\n"), 0o600)
	os.WriteFile(second, []byte("ALPHAVANTAGE_API_TOKEN=from-b\nFINNHUB_API_TOKEN=fh-b\n"), 0o600)

	creds := LoadCredentials(filepath.Join(dir, "missing.env"), first, second)
	if creds.AlphaVantageKey != "from-a" || creds.FinnhubKey != "fh-b" {
		t.Errorf("unexpected %+v", creds)
	}

	t.Setenv("FINNHUB_API_TOKEN", "from-env")
	if creds := LoadCredentials(second); creds.FinnhubKey != "from-env" {
		t.Errorf("process env should win, got %+v", creds)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"5s", 5 * time.Second, false},
		{"1m", time.Minute, false},
		{"30", 30 * time.Second, false},
		{"2.5", 2500 * time.Millisecond, false},
		{"500ms", time.Second, false},
		{"0", time.Second, false},
		{"-3s", 0, true},
		{"soon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInterval(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInterval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Cache.MaxFiles = 0
	if err := cfg.Validate(); err == nil {
		t.Error("max_files 0 should fail")
	}

	cfg = Default(t.TempDir())
	cfg.Telegram.BotToken = "only-token"
	if err := cfg.Validate(); err == nil {
		t.Error("half-configured telegram should fail")
	}

	cfg = Default(t.TempDir())
	cfg.Interval = "never"
	if err := cfg.Validate(); err == nil {
		t.Error("bad interval should fail")
	}
}
