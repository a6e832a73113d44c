package playback

import "time"

// saturatingSub returns a-b, or zero when b > a.
func saturatingSub(a, b time.Duration) time.Duration {
	if b > a {
		return 0
	}
	return a - b
}

// ForwardTarget returns where a forward seek of amount from pos should land.
// The result is always strictly before dur; ok is false when no seek should happen.
func ForwardTarget(pos, dur, amount time.Duration) (target time.Duration, ok bool) {
	if pos+amount < dur {
		return pos + amount, true
	}
	remaining := saturatingSub(dur, pos)
	if remaining < amount && remaining > time.Second {
		return dur - time.Second, true
	}
	return 0, false
}

// RewindTarget returns where playback resumes after rewinding amount from pos.
// It never lands before one second into the track.
func RewindTarget(pos, amount time.Duration) time.Duration {
	target := saturatingSub(pos, amount)
	if target < time.Second {
		return time.Second
	}
	return target
}

// ClampVolume bounds v to [0, ceiling].
func ClampVolume(v, ceiling float64) float64 {
	if v > ceiling {
		return ceiling
	}
	if v < 0 {
		return 0
	}
	return v
}

// IsTrackFinished reports whether remaining playback is within the trailing window.
func IsTrackFinished(pos, dur, threshold time.Duration) bool {
	return saturatingSub(dur, pos) < threshold
}
