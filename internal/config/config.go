// Package config loads service settings from defaults, an optional file and
// COMPASS_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. COMPASS_PORT.
const EnvPrefix = "COMPASS"

// Config holds the settings shared by the server and the CLI.
type Config struct {
	Port        int    `mapstructure:"port"`
	DataDir     string `mapstructure:"data_dir"`
	CatalogPath string `mapstructure:"catalog_path"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst"`
	SubmissionsPerHour int `mapstructure:"submissions_per_hour"`

	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`
	RankingWorkers int           `mapstructure:"ranking_workers"`

	AnswerRetention time.Duration `mapstructure:"answer_retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	EnableHSTS         bool          `mapstructure:"enable_hsts"`
	CompressionMinSize int           `mapstructure:"compression_min_size"`

	LogLevel       string   `mapstructure:"log_level"`
	GinMode        string   `mapstructure:"gin_mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers every key with its default on v. Keys must be
// registered for AutomaticEnv to see them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("catalog_path", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("rate_limit_per_minute", 60)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("submissions_per_hour", 30)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("cache_size", 1024)
	v.SetDefault("ranking_workers", 4)
	v.SetDefault("answer_retention", time.Duration(0))
	v.SetDefault("cleanup_interval", time.Hour)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("enable_hsts", false)
	v.SetDefault("compression_min_size", 1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("allowed_origins", []string{"*"})
}

// New returns a viper instance bound to the COMPASS_ environment.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) over the defaults and environment and
// returns the validated result.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Env values for slices arrive as one comma separated string.
	cfg.AllowedOrigins = splitList(strings.Join(cfg.AllowedOrigins, ","))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("redis_db %d must not be negative", c.RedisDB))
	}
	for _, f := range []struct {
		key   string
		value int
	}{
		{"rate_limit_per_minute", c.RateLimitPerMinute},
		{"rate_limit_burst", c.RateLimitBurst},
		{"submissions_per_hour", c.SubmissionsPerHour},
		{"cache_size", c.CacheSize},
		{"ranking_workers", c.RankingWorkers},
		{"compression_min_size", c.CompressionMinSize},
	} {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", f.key, f.value))
		}
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL))
	}
	if c.AnswerRetention < 0 {
		errs = append(errs, fmt.Errorf("answer_retention must not be negative, got %s", c.AnswerRetention))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cleanup_interval must be positive, got %s", c.CleanupInterval))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("gin_mode %q must be debug, release or test", c.GinMode))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
