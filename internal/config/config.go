// Package config handles configuration loading for CurveWatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Curve   CurveConfig   `mapstructure:"curve"   yaml:"curve"   json:"curve"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"    json:"data"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"  json:"server"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"    json:"news"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"  json:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// CurveConfig holds curve engine settings.
type CurveConfig struct {
	Vocabulary string  `mapstructure:"vocabulary"  yaml:"vocabulary"  json:"vocabulary"`  // "h15" or "legacy"
	CouponRate float64 `mapstructure:"coupon_rate" yaml:"coupon_rate" json:"coupon_rate"` // pct, drives the risk table duration/DV01
}

// DataConfig holds data source settings.
type DataConfig struct {
	Source     string `mapstructure:"source"      yaml:"source"      json:"source"` // "h15", "treasurygov", "file"
	File       string `mapstructure:"file"        yaml:"file"        json:"file"`   // CSV path when source is "file"
	DateFilter string `mapstructure:"date_filter" yaml:"date_filter" json:"date_filter"`
	CacheTTL   int    `mapstructure:"cache_ttl"   yaml:"cache_ttl"   json:"cache_ttl"` // seconds
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
	ServeUI     bool     `mapstructure:"serve_ui"     yaml:"serve_ui"     json:"serve_ui"`
}

// NewsConfig holds news feed settings.
type NewsConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit" json:"limit"`
}

// OutputConfig holds export output settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.curvewatch/config.yaml (home directory)
//  3. /etc/curvewatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: CURVEWATCH_<SECTION>_<KEY>, e.g., CURVEWATCH_DATA_SOURCE
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".curvewatch"))
	v.AddConfigPath("/etc/curvewatch")

	// Environment variable settings
	v.SetEnvPrefix("CURVEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CURVEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Curve defaults
	v.SetDefault("curve.vocabulary", "h15")
	v.SetDefault("curve.coupon_rate", 3.0)

	// Data defaults
	v.SetDefault("data.source", "h15")
	v.SetDefault("data.file", "")
	v.SetDefault("data.date_filter", "")
	v.SetDefault("data.cache_ttl", 900) // 15 minutes

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.serve_ui", true)

	// News defaults
	v.SetDefault("news.limit", 10)

	// Output defaults
	v.SetDefault("output.dir", ".")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
