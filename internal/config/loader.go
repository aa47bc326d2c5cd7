package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "BRACKETPOOL_"
	envConfigFile = envPrefix + "CONFIG"
	envDotenvFile = envPrefix + "ENV_FILE"
	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, an optional dotenv file, an
// optional YAML file and environment variables. Precedence (low -> high):
//  1. defaults (New)
//  2. YAML file named by BRACKETPOOL_CONFIG
//  3. env (prefix BRACKETPOOL_), including variables from the dotenv file
//
// The dotenv file (BRACKETPOOL_ENV_FILE, default .env) never overrides
// variables already set in the process environment.
func Load(ctx context.Context) (*Config, error) {
	dotenv := os.Getenv(envDotenvFile)
	if dotenv == "" {
		dotenv = defaultDotenv
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BRACKETPOOL_MAX_TRIALS -> max_trials. Keys stay flat to match koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
