// Package config loads service configuration from an optional
// config.yml, then applies environment variable overrides. File values
// are validated before use; invalid env overrides log a warning and
// keep the previous value.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Profile selects the location derivation capability set.
type Profile string

const (
	// ProfileGeodetic applies the ellipsoidal transform directly to
	// the inertial position, keeps no sidecar metadata, and never
	// geocodes.
	ProfileGeodetic Profile = "geodetic"
	// ProfileCorrected rotates into the Earth-fixed frame first,
	// retains sidecar metadata, and reverse geocodes a place label.
	ProfileCorrected Profile = "corrected"
)

// Sidecar reports whether the profile retains OEM header, metadata,
// and comments.
func (p Profile) Sidecar() bool {
	return p == ProfileCorrected
}

// App is the full service configuration.
type App struct {
	Server   Server   `yaml:"server"`
	Feed     Feed     `yaml:"feed"`
	Location Location `yaml:"location"`
	Auth     Auth     `yaml:"auth"`
	Stream   Stream   `yaml:"stream"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Feed struct {
	SourceURL string `yaml:"source_url" validate:"omitempty,url"`
}

type Location struct {
	Profile      Profile `yaml:"profile" validate:"omitempty,oneof=geodetic corrected"`
	NominatimURL string  `yaml:"nominatim_url" validate:"omitempty,url"`
	UserAgent    string  `yaml:"user_agent"`
}

type Auth struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type Stream struct {
	IntervalSeconds    int `yaml:"interval_seconds" validate:"gte=0"`
	KeepaliveSeconds   int `yaml:"keepalive_seconds" validate:"gte=0"`
	MaxConcurrentPerIP int `yaml:"max_concurrent_per_ip" validate:"gte=0"`
}

// Interval is the position emit period.
func (s Stream) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// KeepaliveInterval is the SSE keep-alive comment period.
func (s Stream) KeepaliveInterval() time.Duration {
	return time.Duration(s.KeepaliveSeconds) * time.Second
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped silently when absent), then env overrides. Auth enabled
// without a token is the one hard error env vars can produce.
func Load(path string, logger *slog.Logger) (App, error) {
	cfg := App{
		Server:   Server{Addr: ":5173"},
		Location: Location{Profile: ProfileCorrected, UserAgent: "isstrack"},
		Stream: Stream{
			IntervalSeconds:    5,
			KeepaliveSeconds:   30,
			MaxConcurrentPerIP: 10,
		},
	}

	if path == "" {
		path = "config.yml"
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file; env and defaults carry the config.
	case err != nil:
		return cfg, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
		v := validator.New()
		if err := v.Struct(cfg); err != nil {
			return cfg, fmt.Errorf("validating config file: %w", err)
		}
		logger.Info("loaded config file", "path", path)
	}

	applyEnv(&cfg, logger)

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, errors.New("auth token is required when auth is enabled")
	}

	return cfg, nil
}

func applyEnv(cfg *App, logger *slog.Logger) {
	if v := os.Getenv("ISSTRACK_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ISSTRACK_FEED_URL"); v != "" {
		cfg.Feed.SourceURL = v
	}
	if v := os.Getenv("ISSTRACK_LOCATION_PROFILE"); v != "" {
		switch Profile(v) {
		case ProfileGeodetic, ProfileCorrected:
			cfg.Location.Profile = Profile(v)
		default:
			logger.Warn("invalid ISSTRACK_LOCATION_PROFILE value, keeping configured profile",
				"value", v, "profile", string(cfg.Location.Profile))
		}
	}
	if v := os.Getenv("ISSTRACK_NOMINATIM_URL"); v != "" {
		cfg.Location.NominatimURL = v
	}
	if v := os.Getenv("ISSTRACK_GEOCODER_USER_AGENT"); v != "" {
		cfg.Location.UserAgent = v
	}
	if v := os.Getenv("ISSTRACK_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ISSTRACK_AUTH_ENABLED value, keeping configured value", "value", v)
		} else {
			cfg.Auth.Enabled = enabled
		}
	}
	if v := os.Getenv("ISSTRACK_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("ISSTRACK_STREAM_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_STREAM_INTERVAL value, keeping configured value", "value", v)
		} else {
			cfg.Stream.IntervalSeconds = n
		}
	}
	if v := os.Getenv("ISSTRACK_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_STREAM_KEEPALIVE_INTERVAL value, keeping configured value", "value", v)
		} else {
			cfg.Stream.KeepaliveSeconds = n
		}
	}
	if v := os.Getenv("ISSTRACK_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ISSTRACK_STREAM_MAX_CONCURRENT value, keeping configured value", "value", v)
		} else {
			cfg.Stream.MaxConcurrentPerIP = n
		}
	}
}
