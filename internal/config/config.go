// Package config defines service configuration and its loading.
//
// Conventions:
// - New(ctx) returns a Config holding every default.
// - Load layers a YAML file and BOARED_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig; read failures wrap ErrLoadConfig.
package config

import (
	"context"

	"github.com/okian/boared/internal/domain/rating"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the session store: memory, sqlite or bolt.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the database file for the sqlite and bolt drivers.
	StorePath string `koanf:"store_path"`

	// RedisURL enables publishing the leaderboard to Redis when set.
	RedisURL string `koanf:"redis_url"`

	// RedisKey is the key prefix of the published leaderboard.
	RedisKey string `koanf:"redis_key"`

	// PublishQueueSize > 0 publishes to Redis from a background worker with
	// that many pending jobs; 0 publishes inside each write.
	PublishQueueSize int `koanf:"publish_queue_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Rating model constants.
	RatingMu        float64 `koanf:"rating_mu"`
	RatingSigma     float64 `koanf:"rating_sigma"`
	RatingBeta      float64 `koanf:"rating_beta"`
	RatingTau       float64 `koanf:"rating_tau"`
	DrawProbability float64 `koanf:"draw_probability"`

	// ExposureK is the k in the displayed rating mu - k*sigma.
	ExposureK float64 `koanf:"exposure_k"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         "memory",
		RedisKey:            "boared:leaderboard",
		MaxLeaderboardLimit: 100,
		RatingMu:            rating.DefaultMu,
		RatingSigma:         rating.DefaultSigma,
		RatingBeta:          rating.DefaultBeta,
		RatingTau:           rating.DefaultTau,
		DrawProbability:     rating.DefaultDrawProbability,
		ExposureK:           rating.DefaultExposureK,
	}
}

// RatingParams returns the configured model constants.
func (c *Config) RatingParams() rating.Params {
	return rating.Params{
		Mu:              c.RatingMu,
		Sigma:           c.RatingSigma,
		Beta:            c.RatingBeta,
		Tau:             c.RatingTau,
		DrawProbability: c.DrawProbability,
	}
}
