// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player      PlayerConfig      `yaml:"player"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
	Library     LibraryConfig     `yaml:"library"`
	Messages    MessagesConfig    `yaml:"messages"`
}

// PlayerConfig represents playback control configuration.
type PlayerConfig struct {
	InitialVolume      float64 `yaml:"initial_volume" default:"0.7" validate:"gte=0,lte=1"`
	HistoryCapacity    int     `yaml:"history_capacity" default:"50" validate:"gt=0,lte=500"`
	PositionIntervalMs int     `yaml:"position_interval_ms" default:"500" validate:"gte=100,lte=5000"`
}

// EntitlementConfig carries loose settings for the entitlement oracle.
type EntitlementConfig struct {
	Settings map[string]any `yaml:"settings"`
}

// LibraryConfig represents the local track library.
type LibraryConfig struct {
	MediaDir   string           `yaml:"media_dir"`
	Categories []CategoryConfig `yaml:"categories" validate:"dive"`
}

// CategoryConfig declares one category and its tracks.
type CategoryConfig struct {
	ID          string        `yaml:"id" validate:"required"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Tracks      []TrackConfig `yaml:"tracks" validate:"dive"`
}

// TrackConfig declares one track.
type TrackConfig struct {
	ID           string   `yaml:"id" validate:"required"`
	Title        string   `yaml:"title" validate:"required"`
	Description  string   `yaml:"description"`
	DurationSec  int      `yaml:"duration_sec" validate:"gte=0"`
	Premium      bool     `yaml:"premium"`
	Tags         []string `yaml:"tags"`
	ThumbnailURL string   `yaml:"thumbnail_url"`
	File         string   `yaml:"file" validate:"required"`
}

// MessagesConfig represents user-facing prompt messages.
type MessagesConfig struct {
	SkipRestricted     string `yaml:"skip_restricted" default:"Manual track skipping requires a subscription"`
	AutoplayRestricted string `yaml:"autoplay_restricted" default:"Subscribe to enable autoplay and access the full library"`
	PlayRestricted     string `yaml:"play_restricted" default:"This track is not available on your plan"`
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SLUMBER_PLAN"); v != "" {
		if c.Entitlement.Settings == nil {
			c.Entitlement.Settings = make(map[string]any)
		}
		c.Entitlement.Settings["plan"] = v
	}
	if v := os.Getenv("SLUMBER_MEDIA_DIR"); v != "" {
		c.Library.MediaDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return c.validateTrackCategories()
}

// validateTrackCategories checks that declared track IDs are unique.
func (c *Config) validateTrackCategories() error {
	seen := make(map[string]string)
	for _, cat := range c.Library.Categories {
		for _, t := range cat.Tracks {
			if prior, ok := seen[t.ID]; ok {
				return errors.Newf("track id %q declared in both %q and %q", t.ID, prior, cat.ID)
			}
			seen[t.ID] = cat.ID
		}
	}
	return nil
}
