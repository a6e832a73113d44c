// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Player     PlayerConfig     `yaml:"player"`
	Audio      AudioConfig      `yaml:"audio"`
	Transcoder TranscoderConfig `yaml:"transcoder"`
	Picker     PickerConfig     `yaml:"picker"`
}

// PlayerConfig represents playback session configuration.
type PlayerConfig struct {
	PollIntervalMs        int     `yaml:"poll_interval_ms" default:"16" validate:"gte=1,lte=1000"`
	EndOfTrackThresholdMs int     `yaml:"end_of_track_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	SeekStepMs            int     `yaml:"seek_step_ms" default:"5000" validate:"gte=100"`
	VolumeStep            float64 `yaml:"volume_step" default:"0.05" validate:"gt=0,lte=1"`
	MaxVolume             float64 `yaml:"max_volume" default:"2.0" validate:"gt=0,lte=4"`
	InitialVolume         float64 `yaml:"initial_volume" default:"1.0" validate:"gte=0,ltefield=MaxVolume"`
	CommandBuffer         int     `yaml:"command_buffer" default:"32" validate:"gte=1"`
}

// AudioConfig represents output device configuration.
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate" default:"44100" validate:"oneof=22050 32000 44100 48000 88200 96000"`
	BufferMs        int `yaml:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	ResampleQuality int `yaml:"resample_quality" default:"4" validate:"gte=1,lte=6"`
}

// TranscoderConfig represents the conversion pipeline configuration.
type TranscoderConfig struct {
	Type       string         `yaml:"type" default:"ffmpeg" validate:"oneof=ffmpeg"`
	Output     string         `yaml:"output"`
	TimeoutSec int            `yaml:"timeout_sec" default:"600" validate:"gte=1"`
	Settings   map[string]any `yaml:"settings,omitempty"`
}

// PickerConfig represents the file picker configuration.
type PickerConfig struct {
	Command  string `yaml:"command" default:"zenity" validate:"required"`
	StartDir string `yaml:"start_dir" default:"~"`
}

// DefaultPath returns the default location of the config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(ExpandHome("~"), ".config")
	}
	return filepath.Join(dir, "firefly", "config.yaml")
}

// DefaultConvertedPath returns the default canonical conversion output.
func DefaultConvertedPath() string {
	return filepath.Join(os.TempDir(), "firefly-converted.flac")
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return parse(data)
}

// LoadOrDefault loads path, falling back to the built-in defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return parse(nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if cfg.Transcoder.Output == "" {
		cfg.Transcoder.Output = DefaultConvertedPath()
	}
	cfg.Transcoder.Output = ExpandHome(cfg.Transcoder.Output)
	cfg.Picker.StartDir = ExpandHome(cfg.Picker.StartDir)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("FIREFLY_FFMPEG"); v != "" {
		if c.Transcoder.Settings == nil {
			c.Transcoder.Settings = make(map[string]any)
		}
		c.Transcoder.Settings["binary"] = v
	}
	if v := os.Getenv("FIREFLY_CONVERTED_PATH"); v != "" {
		c.Transcoder.Output = v
	}
	if v := os.Getenv("FIREFLY_PICKER"); v != "" {
		c.Picker.Command = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if c.Transcoder.Output == "" {
		return errors.New("transcoder output path is required")
	}
	return nil
}

// PollInterval returns the UI tick interval.
func (p PlayerConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMs) * time.Millisecond
}

// EndOfTrackThreshold returns the trailing window used for end-of-track detection.
func (p PlayerConfig) EndOfTrackThreshold() time.Duration {
	return time.Duration(p.EndOfTrackThresholdMs) * time.Millisecond
}

// SeekStep returns the seek amount for a single key press.
func (p PlayerConfig) SeekStep() time.Duration {
	return time.Duration(p.SeekStepMs) * time.Millisecond
}

// Buffer returns the speaker buffer length.
func (a AudioConfig) Buffer() time.Duration {
	return time.Duration(a.BufferMs) * time.Millisecond
}

// Timeout returns the per-conversion timeout.
func (t TranscoderConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSec) * time.Second
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
