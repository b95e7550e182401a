package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:      44100,
			Buffer:          100 * time.Millisecond,
			Volume:          1,
			ResampleQuality: 4,
		},
		Capture: CaptureConfig{
			Exec:       "ffmpeg",
			Format:     "alsa",
			Device:     "default",
			Channels:   2,
			SampleRate: 48000,
		},
		Output: OutputConfig{
			Backend: "speaker",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "low sample rate", modify: func(c *Config) { c.Audio.SampleRate = 100 }, field: "audio.sample_rate"},
		{name: "zero buffer", modify: func(c *Config) { c.Audio.Buffer = 0 }, field: "audio.buffer"},
		{name: "loud volume", modify: func(c *Config) { c.Audio.Volume = 2 }, field: "audio.volume"},
		{name: "resample quality", modify: func(c *Config) { c.Audio.ResampleQuality = 0 }, field: "audio.resample_quality"},
		{name: "missing exec", modify: func(c *Config) { c.Capture.Exec = "" }, field: "capture.exec"},
		{name: "surround capture", modify: func(c *Config) { c.Capture.Channels = 6 }, field: "capture.channels"},
		{name: "capture rate", modify: func(c *Config) { c.Capture.SampleRate = 0 }, field: "capture.sample_rate"},
		{name: "unknown backend", modify: func(c *Config) { c.Output.Backend = "jack" }, field: "output.backend"},
		{name: "ffmpeg without device", modify: func(c *Config) {
			c.Output.Backend = "ffmpeg"
			c.Output.Device = ""
		}, field: "output.device"},
		{name: "log format", modify: func(c *Config) { c.Logging.Format = "xml" }, field: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.Audio.Buffer)
	assert.Equal(t, "speaker", cfg.Output.Backend)
	assert.Equal(t, "alsa", cfg.Capture.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
audio:
  sample_rate: 48000
  volume: 0.5
capture:
  device: hw:1,0
`), 0o644))
	t.Setenv("SOUNDBOX_LOGGING_LEVEL", "debug")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, 0.5, cfg.Audio.Volume)
	assert.Equal(t, "hw:1,0", cfg.Capture.Device)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
