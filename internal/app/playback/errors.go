package playback

import "github.com/cockroachdb/errors"

// Errors
var (
	ErrNoTrack    = errors.New("no track loaded")
	ErrQueueEmpty = errors.New("queue is empty")
	ErrBusy       = errors.New("audio control is busy")
)

// Failure classes for background work. Producers mark their errors with
// errors.Mark(err, ErrX) and the controller classifies them with errors.Is.
var (
	ErrOpen       = errors.New("cannot open track")
	ErrDecode     = errors.New("cannot decode track")
	ErrConversion = errors.New("conversion failed")
	ErrProbe      = errors.New("duration unknown")
)

// describeLoadError returns the info-log message for a failed load.
func describeLoadError(name string, err error) string {
	switch {
	case errors.Is(err, ErrConversion):
		return "Conversion failed, skipping " + name
	case errors.Is(err, ErrOpen):
		return "Cannot open " + name + ", skipping"
	case errors.Is(err, ErrDecode):
		return "Cannot decode " + name + ", skipping"
	default:
		return "Failed to load " + name
	}
}
