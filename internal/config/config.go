package config

import (
	"flag"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
)

// MustLoad reads the configuration or exits the process.
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// Load reads the YAML file at path (when non-empty) and applies environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config from env: %w", err)
	}

	if cfg.IntakeConfig.SimilarityThreshold <= 0 || cfg.IntakeConfig.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("intake.similarityThreshold must be in (0, 1], got %v", cfg.IntakeConfig.SimilarityThreshold)
	}
	if _, err := cfg.IntakeConfig.Location(); err != nil {
		return nil, fmt.Errorf("intake.defaultTimezone: %w", err)
	}
	if cfg.MigrationConfig.Concurrency < 1 {
		cfg.MigrationConfig.Concurrency = 1
	}

	return &cfg, nil
}

// DSN returns the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// fetchConfigPath takes the path from the -config flag, then CONFIG_PATH.
func fetchConfigPath() string {
	var res string

	if !flag.Parsed() {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
