// Package config_test tests the configuration loading for the voice-service.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[server]
host = "127.0.0.1"
port = 8000

[paths]
base_logs_dir = "/var/log/voice-service"
static_files_dir = "/var/lib/voice-service/static"

[static]
base_url = "https://voice.example.com"
file_lifetime_seconds = 3600
reclaim_interval_seconds = 600

[audio]
loudness_target_dbfs = -5.0
loudness_tolerance_db = 3.0
silence_threshold_dbfs = -40.0
min_silence_ms = 500
keep_silence_ms = 100
low_energy_floor_dbfs = -40.0
min_duration_seconds = 20.0
fetch_timeout_seconds = 30

[inference]
base_url = "https://api.replicate.com"
api_token = "r8_secret"
model_version = "xtts-v2"

[nats]
url = "nats://127.0.0.1:4222"
mirror_bucket = "VOICE_ARTIFACTS"
enabled = true
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "/var/log/voice-service", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "/var/lib/voice-service/static", cfg.Paths.StaticFilesDir)
	assert.Equal(t, "https://voice.example.com", cfg.Static.BaseURL)
	assert.Equal(t, 3600, cfg.Static.FileLifetimeSec)
	assert.Equal(t, 600, cfg.Static.ReclaimIntervalSec)
	assert.InEpsilon(t, -5.0, cfg.Audio.LoudnessTargetDBFS, 0.001)
	assert.InEpsilon(t, 3.0, cfg.Audio.LoudnessToleranceDB, 0.001)
	assert.InEpsilon(t, -40.0, cfg.Audio.SilenceThreshDBFS, 0.001)
	assert.Equal(t, 500, cfg.Audio.MinSilenceMs)
	assert.Equal(t, 100, cfg.Audio.KeepSilenceMs)
	assert.InEpsilon(t, -40.0, cfg.Audio.LowEnergyFloorDBFS, 0.001)
	assert.InEpsilon(t, 20.0, cfg.Audio.MinDurationSec, 0.001)
	assert.Equal(t, 30, cfg.Audio.FetchTimeoutSec)
	assert.Equal(t, "https://api.replicate.com", cfg.Inference.BaseURL)
	assert.Equal(t, "r8_secret", cfg.Inference.APIToken)
	assert.Equal(t, "xtts-v2", cfg.Inference.ModelVersion)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "VOICE_ARTIFACTS", cfg.NATS.MirrorBucket)
	assert.True(t, cfg.NATS.Enabled)
}

func validConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Host: "0.0.0.0", Port: 8000},
		Paths: config.PathsConfig{
			BaseLogsDir:    "/var/log/voice-service",
			StaticFilesDir: "/var/lib/voice-service/static",
		},
		Static: config.StaticConfig{
			BaseURL:            "https://voice.example.com",
			FileLifetimeSec:    3600,
			ReclaimIntervalSec: 600,
		},
		Audio: config.AudioConfig{
			LoudnessTargetDBFS:  -5.0,
			LoudnessToleranceDB: 3.0,
			SilenceThreshDBFS:   -40.0,
			MinSilenceMs:        500,
			KeepSilenceMs:       100,
			LowEnergyFloorDBFS:  -40.0,
			MinDurationSec:      20.0,
			FetchTimeoutSec:     30,
		},
		Inference: config.InferenceConfig{
			BaseURL:      "https://api.replicate.com",
			APIToken:     "r8_secret",
			ModelVersion: "xtts-v2",
		},
		NATS: config.NATSConfig{URL: "", MirrorBucket: "", Enabled: false},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsInvalidConfigs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{
			name:    "empty static dir",
			mutate:  func(cfg *config.Config) { cfg.Paths.StaticFilesDir = "" },
			wantErr: config.ErrStaticDirEmpty,
		},
		{
			name:    "empty base url",
			mutate:  func(cfg *config.Config) { cfg.Static.BaseURL = "" },
			wantErr: config.ErrBaseURLEmpty,
		},
		{
			name:    "zero lifetime",
			mutate:  func(cfg *config.Config) { cfg.Static.FileLifetimeSec = 0 },
			wantErr: config.ErrLifetimeInvalid,
		},
		{
			name:    "negative reclaim interval",
			mutate:  func(cfg *config.Config) { cfg.Static.ReclaimIntervalSec = -1 },
			wantErr: config.ErrIntervalInvalid,
		},
		{
			name:    "zero fetch timeout",
			mutate:  func(cfg *config.Config) { cfg.Audio.FetchTimeoutSec = 0 },
			wantErr: config.ErrFetchTimeoutZero,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			testCase.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), testCase.wantErr)
		})
	}
}
