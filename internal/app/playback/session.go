package playback

import (
	"time"

	"github.com/osa030/firefly/internal/domain/track"
)

// Session is a read-only snapshot of the controller's state, used for rendering.
type Session struct {
	Status       State
	CurrentTrack *track.Track    // nil when nothing is loaded
	Position     *time.Duration  // nil when nothing is loaded
	Duration     *time.Duration  // nil when unknown
	Looping      bool
	Volume       float64
	Queue        []string
	Info         []string
	Loading      bool // A load or conversion is in flight
}

// CurrentInfo returns the latest info message. An empty string means "no message".
func (s Session) CurrentInfo() string {
	if len(s.Info) == 0 {
		return ""
	}
	return s.Info[len(s.Info)-1]
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	return durationPtr(*d)
}
