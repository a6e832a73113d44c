// Package audio provides the beep-backed output sink and decoders.
package audio

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// Stream is a decoded track ready to be handed to the speaker.
type Stream struct {
	beep.StreamSeekCloser
	format beep.Format
}

// NewStream wraps a decoded streamer with its format.
func NewStream(s beep.StreamSeekCloser, format beep.Format) *Stream {
	return &Stream{StreamSeekCloser: s, format: format}
}

// Format returns the stream's native format.
func (s *Stream) Format() beep.Format {
	return s.format
}

// Duration returns the total length of the stream.
func (s *Stream) Duration() (time.Duration, error) {
	n := s.Len()
	if n <= 0 || s.format.SampleRate <= 0 {
		return 0, errors.Newf("stream has no length (samples=%d rate=%d)", n, s.format.SampleRate)
	}
	return s.format.SampleRate.D(n), nil
}

// Elapsed returns the current read position as a duration.
func (s *Stream) Elapsed() time.Duration {
	return s.format.SampleRate.D(s.Position())
}

// SeekTo moves the read position to pos, clamped to the stream bounds.
func (s *Stream) SeekTo(pos time.Duration) error {
	n := s.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if l := s.Len(); l > 0 && n >= l {
		n = l - 1
	}
	return s.Seek(n)
}

// Decode decodes rc according to the file extension (without dot).
// On success the returned Stream owns rc.
func Decode(rc io.ReadSeekCloser, ext string) (*Stream, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch ext {
	case "mp3":
		s, format, err = mp3.Decode(rc)
	case "flac":
		s, format, err = flac.Decode(rc)
	case "ogg", "oga":
		s, format, err = vorbis.Decode(rc)
	case "wav":
		s, format, err = wav.Decode(rc)
	default:
		return nil, errors.Newf("no decoder for format: %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s stream", ext)
	}
	return NewStream(s, format), nil
}
