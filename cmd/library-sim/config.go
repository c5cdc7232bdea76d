package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the simulation parameters. All values are fixed before
// the library is constructed; there is no hot reload.
type Config struct {
	Readers       int `yaml:"readers"`
	Borrowers     int `yaml:"borrowers"`
	InitialBooks  int `yaml:"initial_books"`
	QueueCapacity int `yaml:"queue_capacity"`

	// ServiceTimeMS is the librarian's simulated book search time.
	ServiceTimeMS int `yaml:"service_time_ms"`

	// DurationS is how long the simulation runs before shutdown.
	DurationS int `yaml:"duration_s"`

	// Actor pacing: each reader/borrower sleeps a random duration within
	// [min, max] between attempts.
	ReaderThinkMinMS   int `yaml:"reader_think_min_ms"`
	ReaderThinkMaxMS   int `yaml:"reader_think_max_ms"`
	BorrowerThinkMinMS int `yaml:"borrower_think_min_ms"`
	BorrowerThinkMaxMS int `yaml:"borrower_think_max_ms"`
}

// DefaultConfig mirrors a small but lively library.
func DefaultConfig() Config {
	return Config{
		Readers:            4,
		Borrowers:          3,
		InitialBooks:       10,
		QueueCapacity:      5,
		ServiceTimeMS:      300,
		DurationS:          10,
		ReaderThinkMinMS:   200,
		ReaderThinkMaxMS:   800,
		BorrowerThinkMinMS: 400,
		BorrowerThinkMaxMS: 1200,
	}
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills derivable defaults.
func Validate(cfg *Config) error {
	if cfg.Readers < 0 {
		return fmt.Errorf("readers must be >= 0, got %d", cfg.Readers)
	}
	if cfg.Borrowers < 0 {
		return fmt.Errorf("borrowers must be >= 0, got %d", cfg.Borrowers)
	}
	if cfg.InitialBooks < 0 {
		return fmt.Errorf("initial_books must be >= 0, got %d", cfg.InitialBooks)
	}
	if cfg.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be > 0, got %d", cfg.QueueCapacity)
	}
	if cfg.DurationS <= 0 {
		return fmt.Errorf("duration_s must be > 0, got %d", cfg.DurationS)
	}
	if cfg.ServiceTimeMS < 0 {
		return fmt.Errorf("service_time_ms must be >= 0, got %d", cfg.ServiceTimeMS)
	}
	if cfg.ReaderThinkMaxMS < cfg.ReaderThinkMinMS {
		return fmt.Errorf("reader think window inverted: [%d, %d]", cfg.ReaderThinkMinMS, cfg.ReaderThinkMaxMS)
	}
	if cfg.BorrowerThinkMaxMS < cfg.BorrowerThinkMinMS {
		return fmt.Errorf("borrower think window inverted: [%d, %d]", cfg.BorrowerThinkMinMS, cfg.BorrowerThinkMaxMS)
	}
	return nil
}

// ServiceTime converts the configured milliseconds to a duration.
func (c Config) ServiceTime() time.Duration {
	return time.Duration(c.ServiceTimeMS) * time.Millisecond
}

// Duration converts the configured seconds to a duration.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationS) * time.Second
}
