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
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment knobs read by Load.
const (
	EnvPrefix  = "EEGSCOPE_"
	EnvConfig  = "EEGSCOPE_CONFIG"
	EnvDotFile = "EEGSCOPE_DOTENV"
)

const defaultDotFile = ".env"

// Load builds a Config by layering defaults, .env, optional file, env vars and overrides.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file (EEGSCOPE_DOTENV, default ./.env) exported into the environment
//  3. file (YAML) if EEGSCOPE_CONFIG is set
//  4. env (prefix EEGSCOPE_)
//  5. overrides, typically explicitly set command-line flags
func Load(_ context.Context, overrides map[string]any) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// EEGSCOPE_TICK_INTERVAL_MS -> tick_interval_ms (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}
	// The config path and dotenv path are loader inputs, not config keys.
	k.Delete("config")
	k.Delete("dotenv")

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("%w: overrides: %w", ErrLoadConfig, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports variables from a .env file without overriding ones
// already present in the process environment. A missing default file is fine.
func loadDotEnv() error {
	path := os.Getenv(EnvDotFile)
	explicit := path != ""
	if !explicit {
		path = defaultDotFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}
