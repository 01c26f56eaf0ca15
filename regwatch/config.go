package regwatch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all regwatch service configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

// BackendConfig points the service at the fetch backend.
type BackendConfig struct {
	// BaseURL of the fetch backend, e.g. "http://backend:8080". Required.
	BaseURL string `yaml:"base_url"`
	// Token is an optional bearer token sent with every backend request.
	Token string `yaml:"token"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent sent with backend requests.
	UserAgent string `yaml:"user_agent"`
	// MaxBytes caps backend response body sizes.
	MaxBytes int64 `yaml:"max_bytes"`
}

// SweepConfig controls batch trigger behaviour.
type SweepConfig struct {
	// Pacing is the fixed wait between consecutive sweep items.
	Pacing time.Duration `yaml:"pacing"`
}

func (c *Config) defaults() {
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.MaxBytes <= 0 {
		c.Backend.MaxBytes = 10 * 1024 * 1024
	}
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = "regwatch/1.0"
	}
	if c.Sweep.Pacing <= 0 {
		c.Sweep.Pacing = 500 * time.Millisecond
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("regwatch: parse config %s: %w", path, err)
	}
	return cfg, nil
}
