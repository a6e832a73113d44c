package audio

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"

	"github.com/osa030/firefly/internal/domain/track"
)

// TagReader reads display metadata from audio containers.
type TagReader struct{}

// ReadTags returns the title, artist and album stored in path.
func (TagReader) ReadTags(path string) (track.Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return track.Tags{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return track.Tags{}, errors.Wrapf(err, "failed to read tags from %s", path)
	}

	return track.Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}
