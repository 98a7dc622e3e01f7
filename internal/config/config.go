package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"MarketPulse/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		LookbackDays int           `yaml:"lookback_days"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Instruments []model.Instrument        `yaml:"instruments"`
	Derived     []model.DerivedInstrument `yaml:"derived"`
	Thresholds  []model.Threshold         `yaml:"thresholds"`
	Dashboard   struct {
		WindowDays     int            `yaml:"window_days"`
		MinWindowDays  int            `yaml:"min_window_days"`
		MaxWindowDays  int            `yaml:"max_window_days"`
		CacheTTL       time.Duration  `yaml:"cache_ttl"`
		Compare        []model.Symbol `yaml:"compare"`
		Benchmark      model.Symbol   `yaml:"benchmark"`
		BenchmarkGroup model.Group    `yaml:"benchmark_group"`
		Correlation    struct {
			X model.Symbol `yaml:"x"`
			Y model.Symbol `yaml:"y"`
		} `yaml:"correlation"`
	} `yaml:"dashboard"`
	Schedule struct {
		WatchCron string `yaml:"watch_cron"`
	} `yaml:"schedule"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// envOverrides are applied on top of the YAML file.
type envOverrides struct {
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`
	Proxy            string `envconfig:"HTTPS_PROXY"`
	Port             int    `envconfig:"HTTP_PORT"`
	LogLevel         string `envconfig:"LOG_LEVEL"`
	LogPretty        *bool  `envconfig:"LOG_PRETTY"`
	WatchCron        string `envconfig:"WATCH_CRON"`
	WindowDays       int    `envconfig:"WINDOW_DAYS"`
}

// Load reads config from a YAML file on top of the built-in defaults, then
// applies .env and environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.applyEnv(env)

	return cfg, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.TelegramBotToken != "" {
		c.Telegram.BotToken = env.TelegramBotToken
	}
	if env.TelegramChatID != "" {
		c.Telegram.ChatID = env.TelegramChatID
	}
	if env.Proxy != "" {
		c.Proxy = env.Proxy
	}
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.LogPretty != nil {
		c.Log.Pretty = *env.LogPretty
	}
	if env.WatchCron != "" {
		c.Schedule.WatchCron = env.WatchCron
	}
	if env.WindowDays != 0 {
		c.Dashboard.WindowDays = env.WindowDays
	}
}

// Validate checks that instruments, thresholds and dashboard settings are consistent.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments: at least one is required")
	}
	known := make(map[model.Symbol]bool)
	for _, in := range c.Instruments {
		if in.Symbol == "" {
			return fmt.Errorf("instruments: empty symbol")
		}
		if known[in.Symbol] {
			return fmt.Errorf("instruments: duplicate symbol %q", in.Symbol)
		}
		known[in.Symbol] = true
	}
	for _, d := range c.Derived {
		if d.Symbol == "" {
			return fmt.Errorf("derived: empty symbol")
		}
		if known[d.Symbol] {
			return fmt.Errorf("derived: duplicate symbol %q", d.Symbol)
		}
		if !known[d.Invert] {
			return fmt.Errorf("derived %q: source %q is not a configured instrument", d.Symbol, d.Invert)
		}
		known[d.Symbol] = true
	}
	for _, th := range c.Thresholds {
		if !known[th.Symbol] {
			return fmt.Errorf("threshold %q: unknown symbol %q", th.Name, th.Symbol)
		}
		if !th.Direction.Valid() {
			return fmt.Errorf("threshold %q: direction must be above or below, got %q", th.Name, th.Direction)
		}
	}
	d := c.Dashboard
	if d.MinWindowDays <= 0 || d.MaxWindowDays < d.MinWindowDays {
		return fmt.Errorf("dashboard: invalid window bounds %d..%d", d.MinWindowDays, d.MaxWindowDays)
	}
	if d.WindowDays < d.MinWindowDays || d.WindowDays > d.MaxWindowDays {
		return fmt.Errorf("dashboard.window_days must be within %d..%d", d.MinWindowDays, d.MaxWindowDays)
	}
	if c.DataSource.LookbackDays < d.MaxWindowDays {
		return fmt.Errorf("data_source.lookback_days must cover dashboard.max_window_days")
	}
	for _, s := range d.Compare {
		if !known[s] {
			return fmt.Errorf("dashboard.compare: unknown symbol %q", s)
		}
	}
	if d.Benchmark != "" && !known[d.Benchmark] {
		return fmt.Errorf("dashboard.benchmark: unknown symbol %q", d.Benchmark)
	}
	if d.Correlation.X != "" && !known[d.Correlation.X] {
		return fmt.Errorf("dashboard.correlation.x: unknown symbol %q", d.Correlation.X)
	}
	if d.Correlation.Y != "" && !known[d.Correlation.Y] {
		return fmt.Errorf("dashboard.correlation.y: unknown symbol %q", d.Correlation.Y)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}

// ClampWindow bounds a requested window to the configured limits; 0 means the default.
func (c *Config) ClampWindow(days int) int {
	if days == 0 {
		return c.Dashboard.WindowDays
	}
	if days < c.Dashboard.MinWindowDays {
		return c.Dashboard.MinWindowDays
	}
	if days > c.Dashboard.MaxWindowDays {
		return c.Dashboard.MaxWindowDays
	}
	return days
}

// AllInstruments returns fetched and derived instruments in configuration order.
func (c *Config) AllInstruments() []model.Instrument {
	out := make([]model.Instrument, 0, len(c.Instruments)+len(c.Derived))
	out = append(out, c.Instruments...)
	for _, d := range c.Derived {
		out = append(out, d.Instrument)
	}
	return out
}

// Lookup finds an instrument, fetched or derived, by symbol.
func (c *Config) Lookup(symbol model.Symbol) (model.Instrument, bool) {
	for _, in := range c.AllInstruments() {
		if in.Symbol == symbol {
			return in, true
		}
	}
	return model.Instrument{}, false
}

// SymbolsInGroup lists the symbols of one group in configuration order.
func (c *Config) SymbolsInGroup(g model.Group) []model.Symbol {
	var out []model.Symbol
	for _, in := range c.AllInstruments() {
		if in.Group == g {
			out = append(out, in.Symbol)
		}
	}
	return out
}
