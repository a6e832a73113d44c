package playback

import "github.com/osa030/firefly/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // Load completed and the track is draining
	EventTrackEnded                    // Track finished draining
	EventTrackLooped                   // Track was reloaded because looping is on
	EventTrackSkipped                  // Track was skipped by the user
	EventLoadFailed                    // Conversion, decode or open failed
	EventStateChanged                  // Playback state changed
	EventQueueEmpty                    // Track ended with nothing left to play
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackLooped:
		return "track_looped"
	case EventTrackSkipped:
		return "track_skipped"
	case EventLoadFailed:
		return "load_failed"
	case EventStateChanged:
		return "state_changed"
	case EventQueueEmpty:
		return "queue_empty"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type  EventType
	Track *track.Track // Track concerned (nil for some events)
	State State        // Playback state when the event was emitted
	Err   error        // Set for EventLoadFailed
}
