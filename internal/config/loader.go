package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load builds the Config from the environment.
//
// The loading sequence is:
//  1. Enforce UTC to prevent timestamp drift between workers.
//  2. Load a .env file if present (non-fatal if absent; never overrides
//     variables already set in the environment).
//  3. Process envconfig struct tags.
//  4. Validate the populated struct; any violation fails startup.
func Load() (*Config, error) {
	time.Local = time.UTC

	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}
