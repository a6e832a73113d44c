package playback

import (
	"time"

	"github.com/osa030/firefly/internal/domain/track"
)

// Sink is the part of the audio output the controller inspects on every tick.
// Implementations must answer without blocking on decode or file I/O.
type Sink interface {
	IsPaused() bool
	IsEmpty() bool
	Position() time.Duration
	Play()
	Pause()
}

// LoadReason tells the pipeline why a load was requested.
type LoadReason int

const (
	LoadFresh  LoadReason = iota // New track: gate and convert
	LoadLoop                     // Same track again: gate and convert
	LoadRewind                   // Same track, reuse the playable file, seek after decode
)

// String returns the string representation of the load reason.
func (r LoadReason) String() string {
	switch r {
	case LoadFresh:
		return "fresh"
	case LoadLoop:
		return "loop"
	case LoadRewind:
		return "rewind"
	default:
		return "unknown"
	}
}

// LoadRequest asks the pipeline to replace the sink content with a track.
type LoadRequest struct {
	ID     string
	Path   string        // Original path as chosen by the user
	Reason LoadReason
	SeekTo time.Duration // Applied after decode when > 0
}

// LoadResult reports the outcome of a LoadRequest.
type LoadResult struct {
	ID          string
	Path        string
	Playable    string        // Path actually decoded (original or converted file)
	Duration    time.Duration // Valid when DurationErr is nil
	DurationErr error
	Tags        track.Tags
	Err         error // Non-nil when nothing was put into the sink
}

// Pipeline serialises every sink mutation on a dedicated audio-control task.
// All methods return immediately; Load outcomes arrive on Results.
type Pipeline interface {
	Load(req LoadRequest) error
	Seek(pos time.Duration) error
	SetVolume(volume float64) error
	Results() <-chan LoadResult
}
