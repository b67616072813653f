package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := cfg.Screen
	if s.DropPct != -20 || s.RSIThreshold != 40 || s.WindowHighestDays != 60 || s.MinBars != 60 {
		t.Fatalf("unexpected screen defaults %+v", s)
	}
	if s.RSIPeriod != 14 || s.RSIMethod != "wilder" || s.Pacing != 300*time.Millisecond || s.Workers != 1 {
		t.Fatalf("unexpected screen defaults %+v", s)
	}
	if cfg.Fetcher.MaxAttempts != 3 || cfg.Fetcher.BackoffBase != 2*time.Second || cfg.Fetcher.BackoffStep != time.Second {
		t.Fatalf("unexpected retry defaults %+v", cfg.Fetcher)
	}
	if len(cfg.Universe.Files) != 2 || cfg.Universe.Files[0] != "tickers_sp500.csv" {
		t.Fatalf("unexpected universe files %v", cfg.Universe.Files)
	}
	if cfg.Output.Dir != "data" || cfg.Email.Port != 465 || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Email.Enabled() {
		t.Fatal("email should be disabled without SMTP settings")
	}
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("DROP_PCT", "-15")
	t.Setenv("RSI_THRESHOLD", "35")
	t.Setenv("WINDOW_HIGHEST_DAYS", "90")
	t.Setenv("MIN_BARS", "100")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("MAIL_TO", "me@example.com, you@example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := cfg.Screen
	if s.DropPct != -15 || s.RSIThreshold != 35 || s.WindowHighestDays != 90 || s.MinBars != 100 {
		t.Fatalf("legacy env not applied: %+v", s)
	}
	e := cfg.Email
	if e.Host != "smtp.example.com" || e.Port != 587 || e.Username != "bot@example.com" || e.Password != "secret" {
		t.Fatalf("smtp env not applied: %+v", e)
	}
	if len(e.To) != 2 || e.To[1] != "you@example.com" {
		t.Fatalf("unexpected recipients %q", e.To)
	}
	if !e.Enabled() {
		t.Fatal("email should be enabled once all settings are present")
	}
}

func TestLoadPrefixedEnvironment(t *testing.T) {
	t.Setenv("DIPSCREENER_SCREEN_WORKERS", "4")
	t.Setenv("DIPSCREENER_FETCHER_BACKOFF_BASE", "500ms")
	t.Setenv("DIPSCREENER_SCREEN_DROP_PCT", "-30")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Screen.Workers != 4 || cfg.Fetcher.BackoffBase != 500*time.Millisecond || cfg.Screen.DropPct != -30 {
		t.Fatalf("prefixed env not applied: %+v", cfg.Screen)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"screen:",
		"  rsi_method: classic",
		"  progress_every: 10",
		"universe:",
		"  files: [a.csv]",
		"scheduler:",
		"  timezone: America/New_York",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Screen.RSIMethod != "classic" || cfg.Screen.ProgressEvery != 10 {
		t.Fatalf("file values not applied: %+v", cfg.Screen)
	}
	if len(cfg.Universe.Files) != 1 || cfg.Universe.Files[0] != "a.csv" {
		t.Fatalf("unexpected files %v", cfg.Universe.Files)
	}
	if loc, err := cfg.Scheduler.Location(); err != nil || loc.String() != "America/New_York" {
		t.Fatalf("unexpected location %v, %v", loc, err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("explicit missing config file should fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MIN_BARS":                         "0",
		"WINDOW_HIGHEST_DAYS":              "0",
		"RSI_THRESHOLD":                    "120",
		"DIPSCREENER_SCREEN_RSI_METHOD":    "ema",
		"DIPSCREENER_FETCHER_PROVIDER":     "bloomberg",
		"DIPSCREENER_FETCHER_MAX_ATTEMPTS": "0",
		"DIPSCREENER_SCHEDULER_TIMEZONE":   "Mars/Olympus",
		"HTTPS_PROXY":                      "proxy.local:8080",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			if _, err := Load(""); err == nil {
				t.Fatalf("%s=%s should fail validation", env, value)
			}
		})
	}
}

func TestLoadProxy(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://proxy.local:8080")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fetcher.Proxy != "http://proxy.local:8080" {
		t.Fatalf("unexpected proxy %q", cfg.Fetcher.Proxy)
	}
}

func TestValidateAlpacaNeedsCredentials(t *testing.T) {
	t.Setenv("DIPSCREENER_FETCHER_PROVIDER", "alpaca")
	if _, err := Load(""); err == nil {
		t.Fatal("alpaca without credentials should fail")
	}
	t.Setenv("ALPACA_API_KEY", "key")
	t.Setenv("ALPACA_SECRET_KEY", "secret")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fetcher.Alpaca.APIKey != "key" || cfg.Fetcher.Alpaca.Feed != "iex" {
		t.Fatalf("unexpected alpaca config %+v", cfg.Fetcher.Alpaca)
	}
}
