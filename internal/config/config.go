// Package config provides the configuration structure for the voice-service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"
)

// Default values applied when the TOML omits a field.
const (
	defaultPort                = 8000
	defaultHost                = "0.0.0.0"
	defaultStaticFilesDir      = "/var/lib/voice-service/static"
	defaultStaticLifetimeSec   = 3600
	defaultReclaimIntervalSec  = 600
	defaultFetchTimeoutSec     = 30
	defaultLoudnessTargetDBFS  = -5.0
	defaultLoudnessToleranceDB = 3.0
	defaultSilenceThreshDBFS   = -40.0
	defaultMinSilenceMs        = 500
	defaultKeepSilenceMs       = 100
	defaultLowEnergyFloorDBFS  = -40.0
	defaultMinDurationSec      = 20.0
	defaultInferenceBaseURL    = "https://api.replicate.com"
)

// Validation errors.
var (
	ErrStaticDirEmpty   = errors.New("static files directory cannot be empty")
	ErrBaseURLEmpty     = errors.New("service base url cannot be empty")
	ErrLifetimeInvalid  = errors.New("static file lifetime must be positive")
	ErrIntervalInvalid  = errors.New("reclaim interval must be positive")
	ErrFetchTimeoutZero = errors.New("fetch timeout must be positive")
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir    string `toml:"base_logs_dir"`
	StaticFilesDir string `toml:"static_files_dir"`
}

// StaticConfig holds the published-artifact lifecycle settings.
type StaticConfig struct {
	BaseURL            string `toml:"base_url"`
	FileLifetimeSec    int    `toml:"file_lifetime_seconds"`
	ReclaimIntervalSec int    `toml:"reclaim_interval_seconds"`
}

// AudioConfig holds the preprocessing targets and thresholds.
type AudioConfig struct {
	LoudnessTargetDBFS  float64 `toml:"loudness_target_dbfs"`
	LoudnessToleranceDB float64 `toml:"loudness_tolerance_db"`
	SilenceThreshDBFS   float64 `toml:"silence_threshold_dbfs"`
	MinSilenceMs        int     `toml:"min_silence_ms"`
	KeepSilenceMs       int     `toml:"keep_silence_ms"`
	LowEnergyFloorDBFS  float64 `toml:"low_energy_floor_dbfs"`
	MinDurationSec      float64 `toml:"min_duration_seconds"`
	FetchTimeoutSec     int     `toml:"fetch_timeout_seconds"`
}

// InferenceConfig holds the voice-cloning provider settings.
type InferenceConfig struct {
	BaseURL      string `toml:"base_url"`
	APIToken     string `toml:"api_token"`
	ModelVersion string `toml:"model_version"`
}

// NATSConfig holds the optional object-store mirror settings.
type NATSConfig struct {
	URL          string `toml:"url"`
	MirrorBucket string `toml:"mirror_bucket"`
	Enabled      bool   `toml:"enabled"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Paths     PathsConfig     `toml:"paths"`
	Static    StaticConfig    `toml:"static"`
	Audio     AudioConfig     `toml:"audio"`
	Inference InferenceConfig `toml:"inference"`
	NATS      NATSConfig      `toml:"nats"`
}

// envOverrides mirrors the environment variables recognized by deployments;
// any value set here takes precedence over the TOML.
type envOverrides struct {
	StaticFilesDir      string `env:"STATIC_FILES_DIR"`
	StaticFileLifetime  int    `env:"STATIC_FILE_LIFETIME_SECONDS"`
	VoiceServiceBaseURL string `env:"VOICE_SERVICE_BASE_URL"`
	ReplicateAPIToken   string `env:"REPLICATE_API_TOKEN"`
	NATSURL             string `env:"NATS_URL"`
}

// Load loads the configuration for the voice-service and applies environment
// overrides and defaults.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	applyDefaults(&cfg)

	err = applyEnvOverrides(&cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.Paths.StaticFilesDir == "" {
		return ErrStaticDirEmpty
	}

	if c.Static.BaseURL == "" {
		return ErrBaseURLEmpty
	}

	if c.Static.FileLifetimeSec <= 0 {
		return ErrLifetimeInvalid
	}

	if c.Static.ReclaimIntervalSec <= 0 {
		return ErrIntervalInvalid
	}

	if c.Audio.FetchTimeoutSec <= 0 {
		return ErrFetchTimeoutZero
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}

	if cfg.Paths.StaticFilesDir == "" {
		cfg.Paths.StaticFilesDir = defaultStaticFilesDir
	}

	if cfg.Static.FileLifetimeSec == 0 {
		cfg.Static.FileLifetimeSec = defaultStaticLifetimeSec
	}

	if cfg.Static.ReclaimIntervalSec == 0 {
		cfg.Static.ReclaimIntervalSec = defaultReclaimIntervalSec
	}

	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = defaultInferenceBaseURL
	}

	applyAudioDefaults(&cfg.Audio)
}

func applyAudioDefaults(audio *AudioConfig) {
	if audio.LoudnessTargetDBFS == 0 {
		audio.LoudnessTargetDBFS = defaultLoudnessTargetDBFS
	}

	if audio.LoudnessToleranceDB == 0 {
		audio.LoudnessToleranceDB = defaultLoudnessToleranceDB
	}

	if audio.SilenceThreshDBFS == 0 {
		audio.SilenceThreshDBFS = defaultSilenceThreshDBFS
	}

	if audio.MinSilenceMs == 0 {
		audio.MinSilenceMs = defaultMinSilenceMs
	}

	if audio.KeepSilenceMs == 0 {
		audio.KeepSilenceMs = defaultKeepSilenceMs
	}

	if audio.LowEnergyFloorDBFS == 0 {
		audio.LowEnergyFloorDBFS = defaultLowEnergyFloorDBFS
	}

	if audio.MinDurationSec == 0 {
		audio.MinDurationSec = defaultMinDurationSec
	}

	if audio.FetchTimeoutSec == 0 {
		audio.FetchTimeoutSec = defaultFetchTimeoutSec
	}
}

func applyEnvOverrides(cfg *Config) error {
	var overrides envOverrides

	err := env.Parse(&overrides)
	if err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if overrides.StaticFilesDir != "" {
		cfg.Paths.StaticFilesDir = overrides.StaticFilesDir
	}

	if overrides.StaticFileLifetime > 0 {
		cfg.Static.FileLifetimeSec = overrides.StaticFileLifetime
	}

	if overrides.VoiceServiceBaseURL != "" {
		cfg.Static.BaseURL = overrides.VoiceServiceBaseURL
	}

	if overrides.ReplicateAPIToken != "" {
		cfg.Inference.APIToken = overrides.ReplicateAPIToken
	}

	if overrides.NATSURL != "" {
		cfg.NATS.URL = overrides.NATSURL
	}

	return nil
}
