package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Audio graph configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Input capture configuration
	Capture CaptureConfig `mapstructure:"capture"`

	// Output device configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// AudioConfig holds the rate and levels sounds are rendered at
type AudioConfig struct {
	SampleRate      int           `mapstructure:"sample_rate"`
	Buffer          time.Duration `mapstructure:"buffer"`
	Volume          float64       `mapstructure:"volume"`
	ResampleQuality int           `mapstructure:"resample_quality"`
}

// CaptureConfig holds the ffmpeg input device settings
type CaptureConfig struct {
	Exec       string `mapstructure:"exec"`
	Format     string `mapstructure:"format"`
	Device     string `mapstructure:"device"`
	Channels   int    `mapstructure:"channels"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// OutputConfig selects where mixed audio goes
type OutputConfig struct {
	Backend string `mapstructure:"backend"` // speaker or ffmpeg
	Format  string `mapstructure:"format"`
	Device  string `mapstructure:"device"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.buffer", "100ms")
	v.SetDefault("audio.volume", 1.0)
	v.SetDefault("audio.resample_quality", 4)
	v.SetDefault("capture.exec", "ffmpeg")
	v.SetDefault("capture.format", "alsa")
	v.SetDefault("capture.device", "default")
	v.SetDefault("capture.channels", 2)
	v.SetDefault("capture.sample_rate", 48000)
	v.SetDefault("output.backend", "speaker")
	v.SetDefault("output.format", "alsa")
	v.SetDefault("output.device", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads configuration through v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Read config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.soundbox")
	v.AddConfigPath("/etc/soundbox")

	// Allow environment variables
	v.SetEnvPrefix("SOUNDBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return &ConfigError{Field: "audio.sample_rate", Message: "sample rate must be between 8000 and 192000"}
	}
	if c.Audio.Buffer <= 0 {
		return &ConfigError{Field: "audio.buffer", Message: "buffer duration must be positive"}
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return &ConfigError{Field: "audio.volume", Message: "volume must be between 0 and 1"}
	}
	if c.Audio.ResampleQuality < 1 || c.Audio.ResampleQuality > 64 {
		return &ConfigError{Field: "audio.resample_quality", Message: "resample quality must be between 1 and 64"}
	}
	if c.Capture.Exec == "" {
		return &ConfigError{Field: "capture.exec", Message: "ffmpeg executable is required"}
	}
	if c.Capture.Channels != 1 && c.Capture.Channels != 2 {
		return &ConfigError{Field: "capture.channels", Message: "channels must be 1 or 2"}
	}
	if c.Capture.SampleRate <= 0 {
		return &ConfigError{Field: "capture.sample_rate", Message: "sample rate must be positive"}
	}
	switch c.Output.Backend {
	case "speaker":
	case "ffmpeg":
		if c.Output.Device == "" {
			return &ConfigError{Field: "output.device", Message: "output device is required for the ffmpeg backend"}
		}
	default:
		return &ConfigError{Field: "output.backend", Message: "backend must be speaker or ffmpeg"}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "format must be text or json"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
