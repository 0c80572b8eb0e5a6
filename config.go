// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDirectory    = "./sounds/"
	DefaultExtension    = ".wav"
	DefaultInitialDelay = 2000 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxRetries   = 240
)

// Config controls name resolution and load polling of a Cache.
//
// A source id is Directory + name + Extension, concatenated as is.
// The first readiness check runs InitialDelay after a load starts and then
// every PollInterval. After MaxRetries unsuccessful checks the load fails
// with ErrLoadTimedOut; zero means poll forever.
type Config struct {
	Directory    string        `yaml:"directory"`
	Extension    string        `yaml:"extension"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRetries   int           `yaml:"max_retries"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Directory:    DefaultDirectory,
		Extension:    DefaultExtension,
		InitialDelay: DefaultInitialDelay,
		PollInterval: DefaultPollInterval,
		MaxRetries:   DefaultMaxRetries,
	}
}

// ParseConfig decodes YAML on top of DefaultConfig, so omitted keys keep
// their defaults. Durations use Go syntax ("2s", "500ms").
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate rejects timings the poller cannot work with.
func (c Config) Validate() error {
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must not be negative, got %s", c.InitialDelay)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}
