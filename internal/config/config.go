// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HTTPConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // bearer key for the trigger/admin surface
}

type SchedulerConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval"`     // queue drain cadence
	StaleClaimWindow time.Duration `yaml:"stale_claim_window"` // processing rows older than this go back to pending
}

type SecurityConfig struct {
	// Two host-supplied secret seeds; the vault key is derived from both.
	AuthKeySeed   string `yaml:"auth_key_seed"`
	SecureKeySeed string `yaml:"secure_key_seed"`
}

// Locale is the host locale code (e.g. de_DE). Non-English locales add a
// language instruction to every provider prompt.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	HTTP      HTTPConfig      `yaml:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`
	Locale    string          `yaml:"locale"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Scheduler.TickInterval <= 0 {
		cfg.Scheduler.TickInterval = 5 * time.Minute
	}
	if cfg.Scheduler.StaleClaimWindow <= 0 {
		cfg.Scheduler.StaleClaimWindow = 15 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Security.AuthKeySeed == "" || cfg.Security.SecureKeySeed == "" {
		return nil, errors.New("security.auth_key_seed and security.secure_key_seed are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
