// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// TelegramConfig defines the Telegram bot notification settings.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
}

// ScrapeConfig defines fetcher behavior for both the lightweight HTTP
// path and the headless browser path.
type ScrapeConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	RenderDomains []string      `yaml:"render_domains"`
	CompatDomains []string      `yaml:"compat_domains"`
	UserAgents    []string      `yaml:"user_agents"`
	BrowserBin    string        `yaml:"browser_bin"`
	Pacing        PacingConfig  `yaml:"pacing"`
}

// PacingConfig defines outbound request pacing.
type PacingConfig struct {
	PerSecond float64       `yaml:"per_second"`
	Burst     int           `yaml:"burst"`
	MinDelay  time.Duration `yaml:"min_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	CheckInterval        time.Duration `yaml:"check_interval"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval"`
	ProductPause         time.Duration `yaml:"product_pause"`
}

// AlertsConfig defines alert dispatch behavior.
type AlertsConfig struct {
	Cooldown time.Duration `yaml:"cooldown"`  // default: 1h
	PurgeAge time.Duration `yaml:"purge_age"` // default: 24h
	Epsilon  float64       `yaml:"epsilon"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyScrapeDefaults(&cfg.Scrape)
	applyScheduleDefaults(&cfg.Schedule)
	applyAlertsDefaults(&cfg.Alerts)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.SettleDelay == 0 {
		s.SettleDelay = 3 * time.Second
	}
	applyPacingDefaults(&s.Pacing)
}

func applyPacingDefaults(p *PacingConfig) {
	if p.PerSecond == 0 {
		p.PerSecond = 1.0
	}
	if p.Burst == 0 {
		p.Burst = 1
	}
	if p.MinDelay == 0 {
		p.MinDelay = time.Second
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 3 * time.Second
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.CheckInterval == 0 {
		s.CheckInterval = 30 * time.Minute
	}
	if s.HousekeepingInterval == 0 {
		s.HousekeepingInterval = time.Hour
	}
	if s.ProductPause == 0 {
		s.ProductPause = 2 * time.Second
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.Cooldown == 0 {
		a.Cooldown = time.Hour
	}
	if a.PurgeAge == 0 {
		a.PurgeAge = 24 * time.Hour
	}
	if a.Epsilon == 0 {
		a.Epsilon = 0.01
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Telegram.Enabled && cfg.Telegram.BotToken == "" {
		errs = append(errs, fmt.Errorf("telegram.bot_token is required when telegram is enabled"))
	}

	if cfg.Alerts.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("alerts.epsilon must not be negative"))
	}

	if cfg.Scrape.Pacing.MinDelay > cfg.Scrape.Pacing.MaxDelay {
		errs = append(errs, fmt.Errorf("scrape.pacing.min_delay must not exceed max_delay"))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}

	return errors.Join(errs...)
}
