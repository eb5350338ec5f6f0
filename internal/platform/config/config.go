// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, pipeline) via constructors.
  - Zero Hidden State: No global variables are used to store config.

The Gemini API key is deliberately NOT part of this struct: it is user data
managed at runtime through the settings store, because the desktop client
lets the user enter and change it without restarting the service.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Exvault API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8090"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — caches AI extraction results.
	RedisURL string `env:"REDIS_URL,required"`

	// DataDir is the root directory for the file-backed image store.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// GeminiModel selects the model used by the region extractor.
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// RenderScale is the PDF rasterization scale relative to 72 dpi points.
	RenderScale float64 `env:"RENDER_SCALE" envDefault:"1.5"`

	// MinCropHeight is the minimum output height of a cropped exercise in
	// pixels. Thinner crops are padded to this height on a white canvas.
	// Set to 0 to disable padding.
	MinCropHeight int `env:"MIN_CROP_HEIGHT" envDefault:"150"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.RenderScale <= 0 {
		return nil, fmt.Errorf("config: RENDER_SCALE must be positive, got %v", cfg.RenderScale)
	}

	if cfg.MinCropHeight < 0 {
		return nil, fmt.Errorf("config: MIN_CROP_HEIGHT must not be negative, got %d", cfg.MinCropHeight)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
