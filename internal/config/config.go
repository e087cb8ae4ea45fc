// Package config provides configuration management for the application.
// It handles loading, validation, and access to configuration values from a
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobsift/jobsift/internal/logger"
)

// Scraper defaults. Delays model a fixed minimum spacing between consecutive
// outbound requests, not a throughput target.
const (
	defaultPageDelay     = 2 * time.Second
	defaultJobDelay      = 1 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second
	defaultHTTPTimeout   = 30 * time.Second
	defaultJobLimit      = 25
)

// Database holds storage configuration.
type Database struct {
	// Path is the sqlite database file. ":memory:" is accepted for tests.
	Path string `yaml:"path" mapstructure:"path"`
}

// LinkedIn holds platform session configuration.
type LinkedIn struct {
	// CookieFile points at a file with the raw "k=v; k2=v2" cookie header.
	CookieFile string `yaml:"cookie_file" mapstructure:"cookie_file"`
	// Cookie takes precedence over CookieFile when set.
	Cookie        string        `yaml:"cookie" mapstructure:"cookie"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	// DismissRemote posts dismissal feedback back to the platform.
	DismissRemote bool `yaml:"dismiss_remote" mapstructure:"dismiss_remote"`
}

// Scraper holds pipeline pacing configuration.
type Scraper struct {
	PageDelay time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
	JobDelay  time.Duration `yaml:"job_delay" mapstructure:"job_delay"`
	JobLimit  int           `yaml:"job_limit" mapstructure:"job_limit"`
}

// Blocklists holds the plain-text blocklist file locations.
type Blocklists struct {
	Titles    string `yaml:"titles" mapstructure:"titles"`
	Companies string `yaml:"companies" mapstructure:"companies"`
}

// ScheduleEntry runs a saved search on a cron schedule.
type ScheduleEntry struct {
	Search string `yaml:"search" mapstructure:"search"`
	Cron   string `yaml:"cron" mapstructure:"cron"`
}

// Config represents the application configuration.
type Config struct {
	Database   Database        `yaml:"database" mapstructure:"database"`
	LinkedIn   LinkedIn        `yaml:"linkedin" mapstructure:"linkedin"`
	Scraper    Scraper         `yaml:"scraper" mapstructure:"scraper"`
	Blocklists Blocklists      `yaml:"blocklists" mapstructure:"blocklists"`
	Log        logger.Config   `yaml:"log" mapstructure:"log"`
	Schedules  []ScheduleEntry `yaml:"schedules" mapstructure:"schedules"`
}

// Load loads configuration from the given path (optional) plus environment
// variables, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("JOBSIFT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults and env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Scraper.PageDelay < 0 || c.Scraper.JobDelay < 0 {
		return fmt.Errorf("scraper delays must not be negative")
	}
	if c.LinkedIn.RetryAttempts < 1 {
		return fmt.Errorf("linkedin.retry_attempts must be at least 1")
	}
	for i := range c.Schedules {
		if c.Schedules[i].Search == "" || c.Schedules[i].Cron == "" {
			return fmt.Errorf("schedules[%d]: search and cron are required", i)
		}
	}
	return nil
}

// setDefaults applies default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "jobsift.db")
	v.SetDefault("linkedin.cookie_file", "userCookie.txt")
	v.SetDefault("linkedin.timeout", defaultHTTPTimeout)
	v.SetDefault("linkedin.retry_attempts", defaultRetryAttempts)
	v.SetDefault("linkedin.retry_backoff", defaultRetryBackoff)
	v.SetDefault("linkedin.dismiss_remote", true)
	v.SetDefault("scraper.page_delay", defaultPageDelay)
	v.SetDefault("scraper.job_delay", defaultJobDelay)
	v.SetDefault("scraper.job_limit", defaultJobLimit)
	v.SetDefault("blocklists.titles", "blocklist.txt")
	v.SetDefault("blocklists.companies", "blocklist_companies.txt")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
}
