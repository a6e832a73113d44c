package filter

import "github.com/osa030/firefly/internal/domain/track"

// KnownFormatFilter rejects paths whose extension is not a known audio format.
type KnownFormatFilter struct{}

// Name returns "known_format_filter".
func (f *KnownFormatFilter) Name() string {
	return "known_format_filter"
}

// Check rejects path with "unknown_format" unless its extension is a known audio format.
func (f *KnownFormatFilter) Check(path string) Result {
	if !track.IsKnownFormat(path) {
		return Reject("unknown_format")
	}
	return Accept()
}
