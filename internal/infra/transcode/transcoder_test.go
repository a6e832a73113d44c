package transcode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/firefly/internal/infra/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TranscoderConfig
		wantErr bool
	}{
		{
			name: "ffmpeg with defaults",
			cfg:  config.TranscoderConfig{Type: "ffmpeg", Output: "/tmp/out.flac", TimeoutSec: 60},
		},
		{
			name: "ffmpeg with settings",
			cfg: config.TranscoderConfig{
				Type:       "ffmpeg",
				Output:     "/tmp/out.flac",
				TimeoutSec: 60,
				Settings:   map[string]any{"binary": "/usr/local/bin/ffmpeg", "audio_filter": "dynaudnorm"},
			},
		},
		{
			name:    "unknown type",
			cfg:     config.TranscoderConfig{Type: "sox", Output: "/tmp/out.flac"},
			wantErr: true,
		},
		{
			name:    "missing output",
			cfg:     config.TranscoderConfig{Type: "ffmpeg"},
			wantErr: true,
		},
		{
			name: "bad settings type",
			cfg: config.TranscoderConfig{
				Type:     "ffmpeg",
				Output:   "/tmp/out.flac",
				Settings: map[string]any{"binary": []int{1}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Output, tr.Output())
		})
	}
}

func TestFFmpeg_Args(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f, err := NewFFmpeg("/tmp/out.flac", time.Minute, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
			"-i", "/music/a.opus", "-vn",
			"-af", "loudnorm",
			"-c:a", "flac",
			"/tmp/out.flac",
		}, f.Args("/music/a.opus"))
	})

	t.Run("custom settings", func(t *testing.T) {
		f, err := NewFFmpeg("/tmp/out.flac", time.Minute, map[string]any{
			"binary":       "avconv",
			"audio_filter": "",
			"codec":        "flac",
			"extra_args":   []string{"-ar", "48000"},
		})
		require.NoError(t, err)

		args := f.Args("in.wma")
		assert.Equal(t, "avconv", args[0])
		assert.Equal(t, "/tmp/out.flac", args[len(args)-1])
		assert.Contains(t, args, "48000")
		// An empty filter falls back to the default loudness filter.
		assert.Contains(t, args, "loudnorm")
	})
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestFFmpeg_Convert(t *testing.T) {
	t.Run("writes output", func(t *testing.T) {
		bin := writeScript(t, "for last; do :; done\necho converted > \"$last\"\n")
		out := filepath.Join(t.TempDir(), "sub", "converted.flac")
		f, err := NewFFmpeg(out, time.Minute, map[string]any{"binary": bin})
		require.NoError(t, err)

		got, err := f.Convert(context.Background(), "/music/a.opus")
		require.NoError(t, err)
		assert.Equal(t, out, got)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "converted\n", string(data))
	})

	t.Run("failure includes output", func(t *testing.T) {
		bin := writeScript(t, "echo 'Invalid data found' >&2\nexit 1\n")
		f, err := NewFFmpeg(filepath.Join(t.TempDir(), "out.flac"), time.Minute, map[string]any{"binary": bin})
		require.NoError(t, err)

		_, err = f.Convert(context.Background(), "/music/a.opus")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid data found")
	})

	t.Run("missing binary", func(t *testing.T) {
		f, err := NewFFmpeg(filepath.Join(t.TempDir(), "out.flac"), time.Minute,
			map[string]any{"binary": filepath.Join(t.TempDir(), "no-such-ffmpeg")})
		require.NoError(t, err)

		_, err = f.Convert(context.Background(), "/music/a.opus")
		assert.ErrorContains(t, err, "not found")
	})
}

func TestRemove(t *testing.T) {
	out := filepath.Join(t.TempDir(), "converted.flac")
	f, err := NewFFmpeg(out, time.Minute, nil)
	require.NoError(t, err)

	// Nothing converted yet.
	require.NoError(t, Remove(f))

	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))
	require.NoError(t, Remove(f))
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}
