// Package track provides the Track domain entity and the format gate.
package track

import (
	"path/filepath"
	"strings"
	"time"
)

// Tags holds display metadata read from the track's container.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// IsEmpty reports whether no displayable tag was found.
func (t Tags) IsEmpty() bool {
	return t.Title == "" && t.Artist == ""
}

// Track represents a local audio file known to the player.
type Track struct {
	Path     string        // Original file path as chosen by the user
	Name     string        // File name (base of Path)
	Tags     Tags          // Tag metadata (may be empty)
	Duration time.Duration // Total duration (zero if unknown)
}

// New creates a Track for the given path.
func New(path string) Track {
	return Track{
		Path: path,
		Name: filepath.Base(path),
	}
}

// DisplayName returns "Artist - Title" when tags are present, the file name otherwise.
func (t *Track) DisplayName() string {
	switch {
	case t.Tags.Title != "" && t.Tags.Artist != "":
		return t.Tags.Artist + " - " + t.Tags.Title
	case t.Tags.Title != "":
		return t.Tags.Title
	case t.Name != "":
		return t.Name
	default:
		return "[No file name]"
	}
}

// Extension returns the lower-cased extension without the leading dot.
func Extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
