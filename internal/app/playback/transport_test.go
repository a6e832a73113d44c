package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForwardTarget(t *testing.T) {
	const s = time.Second

	tests := []struct {
		name     string
		pos      time.Duration
		dur      time.Duration
		amount   time.Duration
		expected time.Duration
		ok       bool
	}{
		{name: "plain seek", pos: 10 * s, dur: 60 * s, amount: 5 * s, expected: 15 * s, ok: true},
		{name: "would land exactly on end", pos: 55 * s, dur: 60 * s, amount: 5 * s, ok: false},
		{name: "clamped to one second before end", pos: 57 * s, dur: 60 * s, amount: 5 * s, expected: 59 * s, ok: true},
		{name: "within one second of end", pos: 59 * s, dur: 60 * s, amount: 5 * s, ok: false},
		{name: "position past duration", pos: 70 * s, dur: 60 * s, amount: 5 * s, ok: false},
		{name: "zero duration", pos: 0, dur: 0, amount: 5 * s, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, ok := ForwardTarget(tt.pos, tt.dur, tt.amount)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, target)
				assert.Less(t, target, tt.dur)
			}
		})
	}
}

func TestForwardTarget_NeverReachesEnd(t *testing.T) {
	dur := 3 * time.Minute
	for pos := time.Duration(0); pos <= dur; pos += 250 * time.Millisecond {
		if target, ok := ForwardTarget(pos, dur, 5*time.Second); ok {
			assert.Less(t, target, dur, "pos=%v", pos)
		}
	}
}

func TestRewindTarget(t *testing.T) {
	tests := []struct {
		pos      time.Duration
		amount   time.Duration
		expected time.Duration
	}{
		{pos: 30 * time.Second, amount: 5 * time.Second, expected: 25 * time.Second},
		{pos: 5500 * time.Millisecond, amount: 5 * time.Second, expected: time.Second},
		{pos: 2 * time.Second, amount: 5 * time.Second, expected: time.Second},
		{pos: 0, amount: 5 * time.Second, expected: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, RewindTarget(tt.pos, tt.amount))
		})
	}
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 2.0, ClampVolume(2.05, 2.0))
	assert.Equal(t, 0.0, ClampVolume(-0.05, 2.0))
	assert.Equal(t, 1.5, ClampVolume(1.5, 2.0))
}

func TestIsTrackFinished(t *testing.T) {
	threshold := 3 * time.Second

	assert.True(t, IsTrackFinished(198*time.Second, 200*time.Second, threshold))
	assert.True(t, IsTrackFinished(210*time.Second, 200*time.Second, threshold))
	assert.False(t, IsTrackFinished(197*time.Second, 200*time.Second, threshold))
	assert.False(t, IsTrackFinished(100*time.Second, 200*time.Second, threshold))
}

func TestState_Label(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.Label())
	assert.Equal(t, "Playing", StatePlaying.Label())
	assert.Equal(t, "Paused", StatePaused.Label())
	assert.Equal(t, "playing", StatePlaying.String())
}
