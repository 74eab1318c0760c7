package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when the configuration is missing or malformed.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all application configuration.
type Config struct {
	Universe   []string         `yaml:"universe" validate:"required,min=1,dive,required"`
	Signals    SignalConfig     `yaml:"signals"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Events     EventsConfig     `yaml:"events"`
	Portfolio  PortfolioConfig  `yaml:"portfolio"`
	DataSource DataSourceConfig `yaml:"data_source"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Proxy      string           `yaml:"proxy"`
}

// SignalConfig drives the signal computer.
type SignalConfig struct {
	SMAWindows           []int   `yaml:"sma_windows" default:"[20,50,200]" validate:"required,min=1,dive,gt=0"`
	DividendTargetPct    float64 `yaml:"dividend_target_pct" default:"8" validate:"gt=0"`
	VolumeSpikeThreshold float64 `yaml:"volume_spike_threshold" default:"1.8" validate:"gt=0"`
}

// PortfolioConfig locates the portfolio snapshot used for personalization.
type PortfolioConfig struct {
	Path              string  `yaml:"path" default:"data/portfolio.json"`
	BaseAllocationPct float64 `yaml:"base_allocation_pct" default:"5" validate:"gt=0,lte=100"`
}

// DataSourceConfig configures the MOEX ISS client.
type DataSourceConfig struct {
	BaseURL           string  `yaml:"base_url" default:"https://iss.moex.com" validate:"required,url"`
	Board             string  `yaml:"board" default:"TQBR"`
	DefaultLot        int     `yaml:"default_lot" default:"10" validate:"gt=0"`
	HistoryDays       int     `yaml:"history_days" default:"400" validate:"gte=50"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gt=0"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" default:"30" validate:"gt=0"`
	Concurrency       int     `yaml:"concurrency" default:"4" validate:"gt=0"`
}

// Timeout returns the HTTP client timeout.
func (d DataSourceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// ScheduleConfig configures the daily job.
type ScheduleConfig struct {
	DailyCron  string `yaml:"daily_cron" default:"0 10 19 * * 1-5" validate:"required"`
	Timezone   string `yaml:"timezone" default:"Europe/Moscow" validate:"required"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// TelegramConfig configures the digest notifier. Empty token disables it.
type TelegramConfig struct {
	BotToken   string `yaml:"bot_token"`
	ChatID     string `yaml:"chat_id" validate:"required_with=BotToken"`
	MaxRetries int    `yaml:"max_retries" default:"3" validate:"gte=0"`
}

// Enabled reports whether a bot token is configured.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" }

// DatabaseConfig configures the SQLite history store. Empty path disables persistence.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path" default:"data/sentinel.db"`
}

// RedisConfig is used when events.cache_backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

// HTTPConfig configures the daemon's HTTP server (REST API, /metrics, /health). Empty addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr" default:":9102"`
}

// Default returns a configuration with every default applied and no universe.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads config from a YAML file on top of the defaults, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse config: %v", ErrInvalid, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("PORTFOLIO_PATH"); v != "" {
		cfg.Portfolio.Path = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Events.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Events.LLM.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		cfg.Universe = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("%w: schedule.timezone: %v", ErrInvalid, err)
	}
	return nil
}
