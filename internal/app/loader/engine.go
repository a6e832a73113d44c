// Package loader provides the audio-control task that serialises every
// mutation of the output sink.
package loader

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/firefly/internal/app/playback"
	"github.com/osa030/firefly/internal/domain/track"
	"github.com/osa030/firefly/internal/infra/audio"
)

// Output is the part of the sink the engine mutates.
type Output interface {
	Replace(stream *audio.Stream) error
	Stop()
	Seek(pos time.Duration) error
	SetVolume(volume float64) error
}

// Decoder turns an opened file into a stream. ext is lower case without the dot.
type Decoder interface {
	Decode(rc io.ReadSeekCloser, ext string) (*audio.Stream, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(rc io.ReadSeekCloser, ext string) (*audio.Stream, error)

// Decode calls fn.
func (fn DecoderFunc) Decode(rc io.ReadSeekCloser, ext string) (*audio.Stream, error) {
	return fn(rc, ext)
}

// Converter produces a natively playable copy of src.
type Converter interface {
	Convert(ctx context.Context, src string) (string, error)
}

// TagReader reads display metadata.
type TagReader interface {
	ReadTags(path string) (track.Tags, error)
}

// Config holds engine configuration.
type Config struct {
	CommandBuffer int
}

type commandKind int

const (
	commandLoad commandKind = iota
	commandSeek
	commandVolume
)

type command struct {
	kind   commandKind
	load   playback.LoadRequest
	seek   time.Duration
	volume float64
}

// Engine runs load, seek and volume commands one at a time on a dedicated
// goroutine and reports load outcomes on Results. It implements playback.Pipeline.
type Engine struct {
	output    Output
	decoder   Decoder
	converter Converter
	tags      TagReader

	commands chan command
	results  chan playback.LoadResult

	// Owned by the run goroutine
	source   string // original path of the loaded track
	playable string // file actually decoded for source

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closeMu sync.Once
}

// NewEngine creates a new engine. Call Start to begin processing.
func NewEngine(cfg Config, output Output, decoder Decoder, converter Converter, tags TagReader) *Engine {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 32
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		output:    output,
		decoder:   decoder,
		converter: converter,
		tags:      tags,
		commands:  make(chan command, cfg.CommandBuffer),
		results:   make(chan playback.LoadResult, cfg.CommandBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the command loop.
func (e *Engine) Start() {
	e.wg.Add(1)
	go e.run()
}

// Close stops the command loop, cancelling any conversion in progress.
func (e *Engine) Close() {
	e.closeMu.Do(func() {
		e.cancel()
		e.wg.Wait()
		close(e.results)
	})
}

// Load queues a content replacement.
func (e *Engine) Load(req playback.LoadRequest) error {
	return e.submit(command{kind: commandLoad, load: req})
}

// Seek queues a seek of the loaded track.
func (e *Engine) Seek(pos time.Duration) error {
	return e.submit(command{kind: commandSeek, seek: pos})
}

// SetVolume queues a volume change.
func (e *Engine) SetVolume(volume float64) error {
	return e.submit(command{kind: commandVolume, volume: volume})
}

// Results returns the load outcome channel. It is closed by Close.
func (e *Engine) Results() <-chan playback.LoadResult {
	return e.results
}

func (e *Engine) submit(cmd command) error {
	select {
	case <-e.ctx.Done():
		return errors.New("audio control is closed")
	default:
	}

	select {
	case e.commands <- cmd:
		return nil
	default:
		return playback.ErrBusy
	}
}

func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case cmd := <-e.commands:
			e.handle(cmd)
		}
	}
}

func (e *Engine) handle(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("loader: command panicked: kind=%d panic=%v", cmd.kind, r)
			if cmd.kind == commandLoad {
				e.publish(playback.LoadResult{
					ID:   cmd.load.ID,
					Path: cmd.load.Path,
					Err:  errors.Newf("load panicked: %v", r),
				})
			}
		}
	}()

	switch cmd.kind {
	case commandLoad:
		e.publish(e.load(cmd.load))

	case commandSeek:
		if err := e.output.Seek(cmd.seek); err != nil {
			zlog.Error().Err(err).Msgf("loader: seek failed: pos=%v", cmd.seek)
		}

	case commandVolume:
		if err := e.output.SetVolume(cmd.volume); err != nil {
			zlog.Error().Err(err).Msgf("loader: volume failed: volume=%v", cmd.volume)
		}
	}
}

// load runs gate, conversion, decode and sink replacement for req.
func (e *Engine) load(req playback.LoadRequest) playback.LoadResult {
	res := playback.LoadResult{ID: req.ID, Path: req.Path}
	zlog.Debug().Msgf("loader: load start: id=%s track=%s reason=%s", req.ID, req.Path, req.Reason)

	playable, err := e.resolvePlayable(req)
	if err != nil {
		res.Err = err
		return res
	}
	res.Playable = playable

	f, err := os.Open(playable)
	if err != nil {
		res.Err = errors.Mark(errors.Wrapf(err, "failed to open %s", playable), playback.ErrOpen)
		return res
	}

	stream, err := e.decoder.Decode(f, track.Extension(playable))
	if err != nil {
		f.Close()
		res.Err = errors.Mark(errors.Wrapf(err, "failed to decode %s", playable), playback.ErrDecode)
		return res
	}

	if d, err := stream.Duration(); err != nil {
		res.DurationErr = errors.Mark(err, playback.ErrProbe)
	} else {
		res.Duration = d
	}

	if req.SeekTo > 0 {
		if err := stream.SeekTo(req.SeekTo); err != nil {
			zlog.Warn().Err(err).Msgf("loader: seek after load failed: track=%s pos=%v", req.Path, req.SeekTo)
		}
	}

	if err := e.output.Replace(stream); err != nil {
		stream.Close()
		res.Err = errors.Mark(errors.Wrap(err, "failed to start playback"), playback.ErrDecode)
		return res
	}
	e.source = req.Path
	e.playable = playable

	if e.tags != nil {
		tags, err := e.tags.ReadTags(req.Path)
		if err != nil {
			zlog.Debug().Msgf("loader: no tags: track=%s err=%v", req.Path, err)
		}
		res.Tags = tags
	}

	zlog.Debug().Msgf("loader: load done: id=%s playable=%s duration=%v", req.ID, playable, res.Duration)
	return res
}

// resolvePlayable returns the file to decode for req, converting when the
// format gate rejects the original.
func (e *Engine) resolvePlayable(req playback.LoadRequest) (string, error) {
	if req.Reason == playback.LoadRewind && req.Path == e.source && e.playable != "" {
		return e.playable, nil
	}
	if track.IsSupported(req.Path) {
		return req.Path, nil
	}
	if e.converter == nil {
		return "", errors.Mark(errors.Newf("no converter for %s", req.Path), playback.ErrConversion)
	}

	// The canonical output may be the file currently playing.
	e.output.Stop()
	e.source = ""
	e.playable = ""

	out, err := e.converter.Convert(e.ctx, req.Path)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "failed to convert %s", req.Path), playback.ErrConversion)
	}
	return out, nil
}

func (e *Engine) publish(res playback.LoadResult) {
	if res.Err != nil {
		zlog.Debug().Msgf("loader: load failed: id=%s track=%s err=%v", res.ID, res.Path, res.Err)
	}
	select {
	case e.results <- res:
	case <-e.ctx.Done():
	}
}
