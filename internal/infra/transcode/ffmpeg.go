package transcode

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// FFmpegConfig holds the ffmpeg settings block.
type FFmpegConfig struct {
	Binary      string   `yaml:"binary" mapstructure:"binary" default:"ffmpeg" validate:"required"`
	AudioFilter string   `yaml:"audio_filter" mapstructure:"audio_filter" default:"loudnorm"`
	Codec       string   `yaml:"codec" mapstructure:"codec" default:"flac" validate:"required"`
	ExtraArgs   []string `yaml:"extra_args" mapstructure:"extra_args"`
}

// FFmpeg converts files by shelling out to ffmpeg.
type FFmpeg struct {
	config  *FFmpegConfig
	output  string
	timeout time.Duration
}

// NewFFmpeg creates an ffmpeg transcoder writing to output.
func NewFFmpeg(output string, timeout time.Duration, settings map[string]any) (*FFmpeg, error) {
	if output == "" {
		return nil, errors.New("output path is required")
	}

	var config FFmpegConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	return &FFmpeg{
		config:  &config,
		output:  output,
		timeout: timeout,
	}, nil
}

// Output returns the canonical output path.
func (f *FFmpeg) Output() string {
	return f.output
}

// Args returns the ffmpeg command line for converting src.
func (f *FFmpeg) Args(src string) []string {
	args := []string{f.config.Binary, "-y", "-hide_banner", "-loglevel", "error", "-i", src, "-vn"}
	if f.config.AudioFilter != "" {
		args = append(args, "-af", f.config.AudioFilter)
	}
	args = append(args, "-c:a", f.config.Codec)
	args = append(args, f.config.ExtraArgs...)
	return append(args, f.output)
}

// Convert transcodes src into the output file, overwriting it.
func (f *FFmpeg) Convert(ctx context.Context, src string) (string, error) {
	if _, err := exec.LookPath(f.config.Binary); err != nil {
		return "", errors.Wrapf(err, "transcoder binary not found: %s", f.config.Binary)
	}
	if err := os.MkdirAll(filepath.Dir(f.output), 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}

	zlog.Debug().Msgf("transcode: converting src=%s output=%s filter=%s", src, f.output, f.config.AudioFilter)
	start := time.Now()

	result := cmder.New(f.Args(src)...).
		WithAttemptTimeout(f.timeout).
		Run(ctx)
	if result.Err != nil {
		return "", errors.Wrapf(result.Err, "ffmpeg failed for %s: %s", src, strings.TrimSpace(result.Combined))
	}

	zlog.Debug().Msgf("transcode: done src=%s elapsed=%v", src, time.Since(start))
	return f.output, nil
}
