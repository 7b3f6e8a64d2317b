package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// fitness backend REST service
	FitnessApiURL            string `toml:"fitness_api_url"`
	FitnessApiTimeoutSeconds int    `toml:"fitness_api_timeout_seconds"`

	// catalog caching
	CatalogCacheTTLSeconds int `toml:"catalog_cache_ttl_seconds"`

	// redis (sessions + login rate limiting)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// session persistence: "file" or "redis"
	SessionStore    string `toml:"session_store"`
	SessionFilePath string `toml:"session_file_path"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var configToml Toml
	if _, err := toml.DecodeFile(path, &configToml); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := configToml.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s is empty", env)
	}

	if cfg.FitnessApiURL == "" {
		return nil, fmt.Errorf("fitness_api_url not set for env %s", env)
	}
	if cfg.FitnessApiTimeoutSeconds <= 0 {
		cfg.FitnessApiTimeoutSeconds = 30
	}
	if cfg.CatalogCacheTTLSeconds <= 0 {
		cfg.CatalogCacheTTLSeconds = 300
	}
	if cfg.LoginRateLimitAllowedPerMin <= 0 {
		cfg.LoginRateLimitAllowedPerMin = 15
	}

	return cfg, nil
}
