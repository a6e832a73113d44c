package track

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestIsSupported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "album.mp3"), 0755))

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "mp3 file", path: writeFile(t, dir, "song.mp3"), expected: true},
		{name: "flac file", path: writeFile(t, dir, "song.flac"), expected: true},
		{name: "upper case extension", path: writeFile(t, dir, "SONG.OGG"), expected: true},
		{name: "wav file", path: writeFile(t, dir, "song.wav"), expected: true},
		{name: "opus needs conversion", path: writeFile(t, dir, "song.opus"), expected: false},
		{name: "no extension", path: writeFile(t, dir, "song"), expected: false},
		{name: "missing file", path: filepath.Join(dir, "missing.mp3"), expected: false},
		{name: "directory with audio extension", path: filepath.Join(dir, "album.mp3"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupported(tt.path))
		})
	}
}

func TestIsKnownFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{path: "a.mp3", expected: true},
		{path: "a.opus", expected: true},
		{path: "a.AIFF", expected: true},
		{path: "a.txt", expected: false},
		{path: "a", expected: false},
		{path: ".mp3/", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsKnownFormat(tt.path))
		})
	}
}

func TestKnownFormats_NoDuplicates(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range KnownFormats {
		assert.False(t, seen[f], "duplicate format %s", f)
		seen[f] = true
	}
	for _, f := range SupportedFormats {
		assert.True(t, seen[f], "supported format %s must be known", f)
	}
}

func TestTrack_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "artist and title",
			track:    Track{Name: "01.flac", Tags: Tags{Title: "Song", Artist: "Band"}},
			expected: "Band - Song",
		},
		{
			name:     "title only",
			track:    Track{Name: "01.flac", Tags: Tags{Title: "Song"}},
			expected: "Song",
		},
		{
			name:     "no tags",
			track:    New("/music/01 intro.mp3"),
			expected: "01 intro.mp3",
		},
		{
			name:     "nothing",
			track:    Track{},
			expected: "[No file name]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.DisplayName())
		})
	}
}
