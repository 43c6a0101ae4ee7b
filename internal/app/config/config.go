package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/SensorStat/internal/adapters/source"
)

type Config struct {
	Sources  SourcesConfig  `yaml:"sources"`
	Telegram TelegramConfig `yaml:"telegram"`
	Schedule ScheduleConfig `yaml:"schedule"`
	History  HistoryConfig  `yaml:"history"`
	Report   ReportConfig   `yaml:"report"`
	Trend    TrendConfig    `yaml:"trend"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type SourcesConfig struct {
	QueryTimeout time.Duration    `yaml:"query_timeout"`
	Profiles     []source.Profile `yaml:"profiles"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	Title  string `yaml:"title"`
	ChatID int64  `yaml:"chat_id"`
}

type ScheduleConfig struct {
	Interval    time.Duration `yaml:"interval"`
	PassTimeout time.Duration `yaml:"pass_timeout"`
	Notify      bool          `yaml:"notify"`
}

type HistoryConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

type ReportConfig struct {
	MaxLines        int    `yaml:"max_lines"`
	WrapWidth       int    `yaml:"wrap_width"`
	DisplayTimezone string `yaml:"display_timezone"`
}

type TrendConfig struct {
	Window       time.Duration `yaml:"window"`
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxYLabels   int           `yaml:"max_y_labels"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the display timezone. validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequireTelegram is checked by commands that start the bot.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Sources.QueryTimeout == 0 {
		c.Sources.QueryTimeout = 30 * time.Second
	}
	for i := range c.Sources.Profiles {
		c.Sources.Profiles[i].ApplyDefaults(i + 1)
	}
	if c.Telegram.Title == "" {
		c.Telegram.Title = "All sensors"
	}
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = time.Hour
	}
	if c.Schedule.PassTimeout == 0 {
		c.Schedule.PassTimeout = 2 * time.Minute
	}
	if c.History.Path == "" {
		c.History.Path = "./data/db.sqlite"
	}
	if c.Report.MaxLines == 0 {
		c.Report.MaxLines = 100
	}
	if c.Report.WrapWidth == 0 {
		c.Report.WrapWidth = 50
	}
	if c.Report.DisplayTimezone == "" {
		c.Report.DisplayTimezone = "Asia/Krasnoyarsk"
	}
	if c.Trend.Window == 0 {
		c.Trend.Window = 24 * time.Hour
	}
	if c.Trend.TickInterval == 0 {
		c.Trend.TickInterval = time.Hour
	}
	if c.Trend.MaxYLabels == 0 {
		c.Trend.MaxYLabels = 20
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if len(c.Sources.Profiles) == 0 {
		return fmt.Errorf("sources.profiles: at least one source is required")
	}
	for i := range c.Sources.Profiles {
		if err := c.Sources.Profiles[i].Validate(); err != nil {
			return fmt.Errorf("sources.profiles[%d]: %w", i, err)
		}
	}
	if c.Sources.QueryTimeout < 0 {
		return fmt.Errorf("sources.query_timeout must be positive")
	}
	if c.Schedule.Interval < 0 || c.Schedule.PassTimeout < 0 {
		return fmt.Errorf("schedule.interval and schedule.pass_timeout must be positive")
	}
	if c.Schedule.Notify && c.Telegram.ChatID == 0 {
		return fmt.Errorf("schedule.notify requires telegram.chat_id")
	}
	if c.History.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative")
	}
	if c.Report.MaxLines < 2 {
		return fmt.Errorf("report.max_lines must be at least 2")
	}
	if c.Report.WrapWidth <= 0 {
		return fmt.Errorf("report.wrap_width must be > 0")
	}
	if _, err := time.LoadLocation(c.Report.DisplayTimezone); err != nil {
		return fmt.Errorf("report.display_timezone: %w", err)
	}
	if c.Trend.Window <= 0 || c.Trend.TickInterval <= 0 {
		return fmt.Errorf("trend.window and trend.tick_interval must be > 0")
	}
	if c.Trend.MaxYLabels < 2 {
		return fmt.Errorf("trend.max_y_labels must be at least 2")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
