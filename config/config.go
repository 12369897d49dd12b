package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	SODA       SODAConfig
	Resolver   ResolverConfig
	Navigation NavigationConfig
	Display    DisplayConfig
	Log        LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SODAConfig holds inspection dataset API configuration
type SODAConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Dataset           string        `mapstructure:"dataset"`
	AppToken          string        `mapstructure:"app_token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// ResolverConfig holds cascade configuration
type ResolverConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// NavigationConfig holds client-side navigation handling configuration
type NavigationConfig struct {
	RerunDelay time.Duration `mapstructure:"rerun_delay"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// DisplayConfig holds badge rendering configuration
type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn or error
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Location returns the display time zone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Display.Timezone)
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/gradecard/")

	// GRADECARD_SODA_APP_TOKEN -> soda.app_token
	v.SetEnvPrefix("GRADECARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	v.SetDefault("soda.base_url", "https://data.cityofnewyork.us")
	v.SetDefault("soda.dataset", "43nn-pn8j")
	v.SetDefault("soda.app_token", "")
	v.SetDefault("soda.timeout", "10s")
	v.SetDefault("soda.max_retries", 3)
	v.SetDefault("soda.requests_per_second", 5.0)

	v.SetDefault("resolver.timeout", "20s")

	v.SetDefault("navigation.rerun_delay", "5s")
	v.SetDefault("navigation.session_ttl", "1h")

	v.SetDefault("display.timezone", "America/New_York")

	v.SetDefault("log.level", "info")

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.SODA.BaseURL == "" {
		return fmt.Errorf("SODA base URL is required (set GRADECARD_SODA_BASE_URL)")
	}
	if config.SODA.Dataset == "" {
		return fmt.Errorf("SODA dataset is required (set GRADECARD_SODA_DATASET)")
	}
	if config.SODA.MaxRetries < 1 {
		return fmt.Errorf("soda max_retries must be at least 1, got: %d", config.SODA.MaxRetries)
	}
	if config.Resolver.Timeout < 0 {
		return fmt.Errorf("resolver timeout must not be negative, got: %s", config.Resolver.Timeout)
	}
	if config.Navigation.RerunDelay < 0 {
		return fmt.Errorf("navigation rerun_delay must not be negative, got: %s", config.Navigation.RerunDelay)
	}
	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got: %s", config.Log.Level)
	}

	if _, err := config.Location(); err != nil {
		return fmt.Errorf("unknown display timezone %q: %w", config.Display.Timezone, err)
	}

	return nil
}
