// Package transcode provides the conversion pipeline that turns any known
// audio file into a loudness-normalised file the decoders can play.
package transcode

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/firefly/internal/infra/config"
)

// Transcoder converts a source file into the canonical output file.
// Every conversion overwrites the same output.
type Transcoder interface {
	// Convert blocks until src has been written to Output.
	Convert(ctx context.Context, src string) (string, error)
	// Output returns the canonical output path.
	Output() string
}

// NewFromConfig creates the configured transcoder.
func NewFromConfig(cfg config.TranscoderConfig) (Transcoder, error) {
	zlog.Debug().Msgf("creating transcoder: type=%s output=%s settings=%+v", cfg.Type, cfg.Output, cfg.Settings)

	switch cfg.Type {
	case "ffmpeg":
		t, err := NewFFmpeg(cfg.Output, cfg.Timeout(), cfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create transcoder (type %s)", cfg.Type)
		}
		return t, nil

	default:
		return nil, errors.Newf("unsupported transcoder type: %s", cfg.Type)
	}
}

// Remove deletes the canonical output file. A missing file is not an error.
func Remove(t Transcoder) error {
	if err := os.Remove(t.Output()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to remove %s", t.Output())
	}
	return nil
}
