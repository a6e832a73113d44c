package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"
)

// Config holds speaker configuration.
type Config struct {
	SampleRate      int           // Output sample rate in Hz
	Buffer          time.Duration // Speaker buffer length
	ResampleQuality int           // beep.Resample quality (1-6)
	InitialVolume   float64
}

// Speaker is the output sink. A single track is loaded at a time; it drains
// on the beep speaker goroutine.
//
// Lock order: mu, then speaker.Lock. The drain callback runs under the
// speaker lock and only touches atomics.
type Speaker struct {
	sampleRate beep.SampleRate
	quality    int

	mu     sync.Mutex
	stream *Stream
	ctrl   *beep.Ctrl
	gain   *effects.Gain
	level  float64

	generation atomic.Uint64
	drained    atomic.Bool
}

// NewSpeaker initialises the audio device.
func NewSpeaker(cfg Config) (*Speaker, error) {
	sr := beep.SampleRate(cfg.SampleRate)
	if sr <= 0 {
		return nil, errors.Newf("invalid sample rate: %d", cfg.SampleRate)
	}
	if err := speaker.Init(sr, sr.N(cfg.Buffer)); err != nil {
		return nil, errors.Wrap(err, "failed to initialize audio output")
	}
	zlog.Debug().Msgf("speaker initialized: sample_rate=%d buffer=%v", cfg.SampleRate, cfg.Buffer)

	s := &Speaker{
		sampleRate: sr,
		quality:    cfg.ResampleQuality,
		level:      cfg.InitialVolume,
	}
	s.drained.Store(true)
	return s, nil
}

// Replace stops whatever is playing and starts stream from its current position.
func (s *Speaker) Replace(stream *Stream) error {
	if stream == nil {
		return errors.New("stream is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	var src beep.Streamer = stream
	if rate := stream.Format().SampleRate; rate != s.sampleRate {
		src = beep.Resample(s.quality, rate, s.sampleRate, stream)
	}
	ctrl := &beep.Ctrl{Streamer: src}
	gain := &effects.Gain{Streamer: ctrl, Gain: s.level - 1}

	gen := s.generation.Add(1)
	s.drained.Store(false)
	done := beep.Callback(func() {
		if s.generation.Load() == gen {
			s.drained.Store(true)
		}
	})

	s.stream = stream
	s.ctrl = ctrl
	s.gain = gain
	speaker.Play(beep.Seq(gain, done))
	return nil
}

// Stop clears the speaker and releases the loaded stream.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Speaker) stopLocked() {
	speaker.Clear()
	s.generation.Add(1)
	s.drained.Store(true)

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			zlog.Debug().Msgf("speaker: failed to close stream: %v", err)
		}
	}
	s.stream = nil
	s.ctrl = nil
	s.gain = nil
}

// IsEmpty reports whether nothing is left to drain.
func (s *Speaker) IsEmpty() bool {
	return s.drained.Load()
}

// IsPaused reports whether the loaded track is paused.
func (s *Speaker) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return false
	}
	speaker.Lock()
	paused := s.ctrl.Paused
	speaker.Unlock()
	return paused
}

// Position returns the elapsed time of the loaded track.
func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return 0
	}
	speaker.Lock()
	pos := s.stream.Elapsed()
	speaker.Unlock()
	return pos
}

// Play resumes playback.
func (s *Speaker) Play() {
	s.setPaused(false)
}

// Pause pauses playback.
func (s *Speaker) Pause() {
	s.setPaused(true)
}

func (s *Speaker) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

// Seek moves the loaded track to pos.
func (s *Speaker) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return errors.New("no stream loaded")
	}
	speaker.Lock()
	err := s.stream.SeekTo(pos)
	speaker.Unlock()
	if err != nil {
		return errors.Wrapf(err, "failed to seek to %v", pos)
	}
	return nil
}

// SetVolume sets the linear volume (1.0 is unity gain).
func (s *Speaker) SetVolume(volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = volume
	if s.gain == nil {
		return nil
	}
	speaker.Lock()
	s.gain.Gain = volume - 1
	speaker.Unlock()
	return nil
}

// Close stops playback and closes the audio device.
func (s *Speaker) Close() {
	s.Stop()
	speaker.Close()
}
