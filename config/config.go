// Package config provides configuration loading and management for Demoscope.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Demoscope configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	NATS   NATSConfig   `yaml:"nats"`
	Ingest IngestConfig `yaml:"ingest"`
	Trend  TrendConfig  `yaml:"trend"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	// Addr is the listen address for the API server (default: :8080)
	Addr string `yaml:"addr"`
}

// NATSConfig configures the NATS connection used for batch persistence
type NATSConfig struct {
	// URL is the NATS server URL (empty = persistence disabled)
	URL string `yaml:"url"`
}

// IngestConfig configures the CSV ingestion pipeline
type IngestConfig struct {
	// Workers is the number of concurrent file workers
	Workers int `yaml:"workers"`
}

// TrendConfig configures the time-series trend engine
type TrendConfig struct {
	// MaxRecords caps the number of records fed into trend aggregation.
	// Larger datasets are downsampled proportionally per source file.
	MaxRecords int `yaml:"max_records"`
	// MovingAverageWindow is the window size for trend smoothing
	MovingAverageWindow int `yaml:"moving_average_window"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		NATS: NATSConfig{
			URL: "",
		},
		Ingest: IngestConfig{
			Workers: 4,
		},
		Trend: TrendConfig{
			MaxRecords:          100000,
			MovingAverageWindow: 7,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be at least 1")
	}
	if c.Trend.MaxRecords < 1 {
		return fmt.Errorf("trend.max_records must be at least 1")
	}
	if c.Trend.MovingAverageWindow < 2 {
		return fmt.Errorf("trend.moving_average_window must be at least 2")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Ingest
	if other.Ingest.Workers != 0 {
		c.Ingest.Workers = other.Ingest.Workers
	}

	// Trend
	if other.Trend.MaxRecords != 0 {
		c.Trend.MaxRecords = other.Trend.MaxRecords
	}
	if other.Trend.MovingAverageWindow != 0 {
		c.Trend.MovingAverageWindow = other.Trend.MovingAverageWindow
	}
}
