package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/boared/pkg/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOARED_"

// PathEnv names the variable holding the optional YAML file path.
const PathEnv = EnvPrefix + "CONFIG"

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New(ctx))
//  2. the YAML file named by BOARED_CONFIG, if set
//  3. env (prefix BOARED_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(PathEnv))
}

// LoadFile is Load with an explicit file path; an empty path skips the file.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// BOARED_STORE_DRIVER -> store_driver; underscores match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return invalid("log_format must be text or json, got %q", c.LogFormat)
	case c.MaxLeaderboardLimit <= 0:
		return invalid("max_leaderboard_limit must be positive")
	case c.PublishQueueSize < 0:
		return invalid("publish_queue_size must not be negative")
	case c.ExposureK < 0:
		return invalid("exposure_k must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.StoreDriver) {
	case "memory":
	case "sqlite", "bolt":
		if c.StorePath == "" {
			return invalid("store_path is required for the %s driver", c.StoreDriver)
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}
	if err := c.RatingParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
