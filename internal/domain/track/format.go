package track

import (
	"os"

	"github.com/samber/lo"
)

// Formats the output sink decodes natively.
var SupportedFormats = []string{"flac", "mp3", "ogg", "wav"}

// Formats verified to convert cleanly.
var TestedFormats = []string{"mp3", "flac", "wav", "ogg", "opus", "oga"}

// Formats accepted for conversion but never verified.
var UntestedFormats = []string{"pcm", "aiff", "aac", "wma", "alac"}

// KnownFormats is every extension the player will try to play.
var KnownFormats = lo.Uniq(append(append([]string{}, TestedFormats...), UntestedFormats...))

// IsSupported reports whether path is a regular file in a natively playable format.
// A missing extension, a missing file or a non-regular file all report false, so
// callers route unknown files through conversion exactly like unsupported ones.
func IsSupported(path string) bool {
	ext := Extension(path)
	if ext == "" || !lo.Contains(SupportedFormats, ext) {
		return false
	}
	return IsRegularFile(path)
}

// IsKnownFormat reports whether the path's extension is a known audio format.
// It does not touch the filesystem.
func IsKnownFormat(path string) bool {
	ext := Extension(path)
	return ext != "" && lo.Contains(KnownFormats, ext)
}

// IsRegularFile reports whether path exists and is a regular file (symlinks followed).
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
