package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"dip-screener/internal/indicator"
	"dip-screener/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	Screen    ScreenConfig    `mapstructure:"screen"`
	Universe  UniverseConfig  `mapstructure:"universe"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Output    OutputConfig    `mapstructure:"output"`
	Email     EmailConfig     `mapstructure:"email"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   logging.Config  `mapstructure:"logging"`
}

// ScreenConfig holds the indicator and filter parameters.
type ScreenConfig struct {
	DropPct           float64       `mapstructure:"drop_pct"`
	RSIThreshold      float64       `mapstructure:"rsi_threshold"`
	WindowHighestDays int           `mapstructure:"window_highest_days"`
	MinBars           int           `mapstructure:"min_bars"`
	RSIPeriod         int           `mapstructure:"rsi_period"`
	RSIMethod         string        `mapstructure:"rsi_method"`
	Pacing            time.Duration `mapstructure:"pacing"`
	ProgressEvery     int           `mapstructure:"progress_every"`
	Workers           int           `mapstructure:"workers"`
}

// UniverseConfig locates the ticker source files.
type UniverseConfig struct {
	Files        []string `mapstructure:"files"`
	SP500URL     string   `mapstructure:"sp500_url"`
	Nasdaq100URL string   `mapstructure:"nasdaq100_url"`
}

// FetcherConfig selects and tunes the market data provider.
type FetcherConfig struct {
	Provider       string        `mapstructure:"provider"`
	Range          string        `mapstructure:"range"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffStep    time.Duration `mapstructure:"backoff_step"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Proxy          string        `mapstructure:"proxy"`
	UserAgent      string        `mapstructure:"user_agent"`
	YahooBaseURL   string        `mapstructure:"yahoo_base_url"`
	Alpaca         AlpacaConfig  `mapstructure:"alpaca"`
}

// AlpacaConfig covers the Alpaca market data API.
type AlpacaConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Feed      string `mapstructure:"feed"`
	BaseURL   string `mapstructure:"base_url"`
}

// OutputConfig sets where daily artifacts go.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// EmailConfig describes SMTP delivery.
type EmailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	To       []string      `mapstructure:"to"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether every SMTP setting needed to send is present.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Username != "" && e.Password != "" && len(e.To) > 0
}

// AlertingConfig defines the optional chat channels.
type AlertingConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SchedulerConfig governs the daily schedule.
type SchedulerConfig struct {
	Cron       string `mapstructure:"cron"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// Location resolves the scheduler timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// legacyEnv maps keys to the bare environment names used by existing
// deployments. Prefixed names keep working alongside them.
var legacyEnv = map[string]string{
	"screen.drop_pct":            "DROP_PCT",
	"screen.rsi_threshold":       "RSI_THRESHOLD",
	"screen.window_highest_days": "WINDOW_HIGHEST_DAYS",
	"screen.min_bars":            "MIN_BARS",
	"fetcher.proxy":              "HTTPS_PROXY",
	"fetcher.alpaca.api_key":     "ALPACA_API_KEY",
	"fetcher.alpaca.api_secret":  "ALPACA_SECRET_KEY",
	"email.host":                 "SMTP_HOST",
	"email.port":                 "SMTP_PORT",
	"email.username":             "SMTP_USER",
	"email.password":             "SMTP_PASS",
	"email.to":                   "MAIL_TO",
}

const envPrefix = "DIPSCREENER"

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v, path != ""); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper, explicit bool) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && !explicit {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, env := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("screen.drop_pct", -20.0)
	v.SetDefault("screen.rsi_threshold", 40.0)
	v.SetDefault("screen.window_highest_days", 60)
	v.SetDefault("screen.min_bars", 60)
	v.SetDefault("screen.rsi_period", 14)
	v.SetDefault("screen.rsi_method", string(indicator.RSIWilder))
	v.SetDefault("screen.pacing", "300ms")
	v.SetDefault("screen.progress_every", 50)
	v.SetDefault("screen.workers", 1)

	v.SetDefault("universe.files", []string{"tickers_sp500.csv", "tickers_nasdaq100.csv"})
	v.SetDefault("universe.sp500_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("universe.nasdaq100_url", "https://en.wikipedia.org/wiki/Nasdaq-100")

	v.SetDefault("fetcher.provider", "yahoo")
	v.SetDefault("fetcher.range", "6mo")
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.backoff_base", "2s")
	v.SetDefault("fetcher.backoff_step", "1s")
	v.SetDefault("fetcher.request_timeout", "30s")
	v.SetDefault("fetcher.proxy", "")
	v.SetDefault("fetcher.user_agent", "Mozilla/5.0 (compatible; dipscreener/1.0)")
	v.SetDefault("fetcher.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("fetcher.alpaca.api_key", "")
	v.SetDefault("fetcher.alpaca.api_secret", "")
	v.SetDefault("fetcher.alpaca.feed", "iex")
	v.SetDefault("fetcher.alpaca.base_url", "")

	v.SetDefault("output.dir", "data")

	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 465)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", []string{})
	v.SetDefault("email.timeout", "30s")

	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("scheduler.cron", "0 30 22 * * 1-5")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.run_on_start", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			trimSliceHook(),
		)
	}
}

// trimSliceHook drops surrounding whitespace and blanks from string lists,
// so "a@x.com, b@x.com" and "" decode cleanly.
func trimSliceHook() mapstructure.DecodeHookFuncType {
	return func(_, _ reflect.Type, data any) (any, error) {
		items, ok := data.([]string)
		if !ok {
			return data, nil
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	s := c.Screen
	if s.MinBars < 1 {
		return fmt.Errorf("screen.min_bars must be at least 1")
	}
	if s.WindowHighestDays < 1 {
		return fmt.Errorf("screen.window_highest_days must be at least 1")
	}
	if s.RSIPeriod < 1 {
		return fmt.Errorf("screen.rsi_period must be at least 1")
	}
	if s.RSIThreshold < 0 || s.RSIThreshold > 100 {
		return fmt.Errorf("screen.rsi_threshold must be within [0, 100]")
	}
	if _, err := indicator.ParseRSIMethod(s.RSIMethod); err != nil {
		return fmt.Errorf("screen.rsi_method: %w", err)
	}
	if s.Pacing < 0 {
		return fmt.Errorf("screen.pacing cannot be negative")
	}
	if s.Workers < 1 {
		return fmt.Errorf("screen.workers must be at least 1")
	}

	f := c.Fetcher
	if f.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be at least 1")
	}
	if f.BackoffBase < 0 || f.BackoffStep < 0 {
		return fmt.Errorf("fetcher backoff cannot be negative")
	}
	if f.Proxy != "" {
		if u, err := url.Parse(f.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("fetcher.proxy %q is not a valid URL", f.Proxy)
		}
	}
	switch f.Provider {
	case "yahoo":
	case "alpaca":
		if f.Alpaca.APIKey == "" || f.Alpaca.APISecret == "" {
			return fmt.Errorf("fetcher.alpaca.api_key and api_secret must be configured")
		}
	default:
		return fmt.Errorf("fetcher.provider %q is not supported", f.Provider)
	}

	if len(c.Universe.Files) == 0 {
		return fmt.Errorf("universe.files must list at least one file")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Email.Port <= 0 {
		return fmt.Errorf("email.port must be greater than zero")
	}

	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be configured")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be configured")
		}
	}

	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	return nil
}
