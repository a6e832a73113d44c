package filter

import "github.com/osa030/firefly/internal/domain/track"

// RegularFileFilter rejects paths that are missing, directories, devices or sockets.
type RegularFileFilter struct{}

// Name returns "regular_file_filter".
func (f *RegularFileFilter) Name() string {
	return "regular_file_filter"
}

// Check rejects path with "not_regular_file" unless it is an existing regular file.
func (f *RegularFileFilter) Check(path string) Result {
	if !track.IsRegularFile(path) {
		return Reject("not_regular_file")
	}
	return Accept()
}
