package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/firefly/internal/app/queue"
	"github.com/osa030/firefly/internal/domain/track"
)

// ConvertingMessage is shown while an unsupported format is transcoded.
const ConvertingMessage = "Converting format and normalizing volume..."

// Config holds controller configuration.
type Config struct {
	EndOfTrackThreshold time.Duration // Remaining time under which an empty sink means "finished"
	SeekStep            time.Duration // Amount for SeekForward/SeekBackward
	VolumeStep          float64       // Amount for VolumeUp/VolumeDown
	MaxVolume           float64       // Volume ceiling
	InitialVolume       float64
	EventBuffer         int
}

// DefaultConfig returns the reference policy values.
func DefaultConfig() Config {
	return Config{
		EndOfTrackThreshold: 3 * time.Second,
		SeekStep:            5 * time.Second,
		VolumeStep:          0.05,
		MaxVolume:           2.0,
		InitialVolume:       1.0,
		EventBuffer:         16,
	}
}

// pendingLoad is the load the controller is waiting on.
type pendingLoad struct {
	id     string
	reason LoadReason
}

// Controller owns the playback session: current track, position and duration
// bookkeeping, the loop flag and the queue. It reconciles against the sink on
// every Tick and submits sink mutations to the Pipeline.
//
// Controller is not safe for concurrent use; drive it from a single goroutine.
type Controller struct {
	sink     Sink
	pipeline Pipeline
	queue    *queue.Queue
	config   Config

	// Session state
	state        State
	currentTrack *track.Track
	position     *time.Duration
	duration     *time.Duration
	looping      bool
	volume       float64
	info         []string

	// In-flight load (nil when none)
	pending *pendingLoad

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller.
func NewController(config Config, sink Sink, pipeline Pipeline, q *queue.Queue) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultConfig().EventBuffer
	}
	if q == nil {
		q = queue.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sink:     sink,
		pipeline: pipeline,
		queue:    q,
		config:   config,
		state:    StateIdle,
		volume:   ClampVolume(config.InitialVolume, config.MaxVolume),
		info:     []string{""},
		eventCh:  make(chan Event, config.EventBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Tick reconciles the session with the sink, detects end-of-track and
// advances the queue. It never blocks.
func (c *Controller) Tick() {
	c.drainResults()

	prev := c.state
	paused := c.sink.IsPaused()
	empty := c.sink.IsEmpty()
	pos := c.sink.Position()

	if paused {
		c.state = StatePaused
	} else if c.currentTrack != nil && !empty {
		c.state = StatePlaying
	}
	if empty {
		c.state = StateIdle
	}

	if c.currentTrack != nil {
		c.position = durationPtr(pos)
	} else {
		c.position = nil
	}

	if c.pending == nil && c.currentTrack != nil && c.duration != nil && c.position != nil &&
		empty && IsTrackFinished(*c.position, *c.duration, c.config.EndOfTrackThreshold) {
		c.onTrackEnd()
	}

	if c.state != prev {
		zlog.Debug().Msgf("playback: state %s -> %s", prev, c.state)
		c.sendEvent(Event{Type: EventStateChanged, Track: c.currentTrack, State: c.state})
	}

	if c.state == StateIdle && c.pending == nil && !c.queue.IsEmpty() {
		_ = c.advance()
	}
}

// onTrackEnd handles a track that has drained from the sink.
func (c *Controller) onTrackEnd() {
	ended := c.currentTrack

	if c.looping {
		zlog.Debug().Msgf("playback: looping track=%s", ended.Path)
		if err := c.startLoad(ended.Path, LoadLoop, 0); err != nil {
			zlog.Error().Err(err).Msgf("playback: failed to reload looping track=%s", ended.Path)
		}
		return
	}

	zlog.Debug().Msgf("playback: track ended: track=%s", ended.Path)
	c.position = nil
	c.duration = nil
	c.state = StateIdle
	c.sendEvent(Event{Type: EventTrackEnded, Track: ended, State: c.state})
	if c.queue.IsEmpty() {
		c.sendEvent(Event{Type: EventQueueEmpty, State: c.state})
	}
}

// advance pops the front of the queue and starts loading it.
func (c *Controller) advance() error {
	next, ok := c.queue.Advance()
	if !ok {
		return ErrQueueEmpty
	}
	if err := c.startLoad(next, LoadFresh, 0); err != nil {
		c.queue.PushFront(next)
		return err
	}
	return nil
}

// startLoad submits a load to the pipeline and records it as pending.
// For a fresh load the current track switches immediately; duration follows
// once the pipeline reports success.
func (c *Controller) startLoad(path string, reason LoadReason, seekTo time.Duration) error {
	if reason != LoadRewind && !track.IsSupported(path) {
		c.displayInfo(ConvertingMessage)
	}

	req := LoadRequest{
		ID:     uuid.New().String(),
		Path:   path,
		Reason: reason,
		SeekTo: seekTo,
	}
	if err := c.pipeline.Load(req); err != nil {
		zlog.Error().Err(err).Msgf("playback: load not accepted: track=%s reason=%s", path, reason)
		c.displayInfo("Player busy, could not load " + track.New(path).Name)
		return errors.Wrap(err, "failed to submit load")
	}

	c.pending = &pendingLoad{id: req.ID, reason: reason}
	if reason == LoadFresh {
		t := track.New(path)
		c.currentTrack = &t
		c.position = nil
		c.duration = nil
	}
	zlog.Debug().Msgf("playback: load submitted: id=%s track=%s reason=%s seek=%v", req.ID, path, reason, seekTo)
	return nil
}

// drainResults applies every pipeline result that has arrived since the last tick.
func (c *Controller) drainResults() {
	for {
		select {
		case res, ok := <-c.pipeline.Results():
			if !ok {
				return
			}
			c.applyResult(res)
		default:
			return
		}
	}
}

// applyResult applies a load outcome. Results for superseded loads are ignored.
func (c *Controller) applyResult(res LoadResult) {
	if c.pending == nil || res.ID != c.pending.id {
		zlog.Debug().Msgf("playback: ignoring stale load result: id=%s track=%s", res.ID, res.Path)
		return
	}
	reason := c.pending.reason
	c.pending = nil

	if res.Err != nil {
		failed := c.currentTrack
		name := track.New(res.Path).Name
		zlog.Error().Err(res.Err).Msgf("playback: load failed: track=%s reason=%s", res.Path, reason)
		c.displayInfo(describeLoadError(name, res.Err))

		c.currentTrack = nil
		c.position = nil
		c.duration = nil
		c.state = StateIdle
		c.sendEvent(Event{Type: EventLoadFailed, Track: failed, State: c.state, Err: res.Err})
		return
	}

	if c.currentTrack == nil || c.currentTrack.Path != res.Path {
		t := track.New(res.Path)
		c.currentTrack = &t
	}
	c.currentTrack.Tags = res.Tags

	if res.DurationErr != nil {
		zlog.Warn().Err(res.DurationErr).Msgf("playback: duration unknown, auto-advance disabled: track=%s", res.Path)
		c.currentTrack.Duration = 0
		c.duration = nil
		c.displayInfo("Duration unknown for " + c.currentTrack.Name + ", skip manually")
	} else {
		c.currentTrack.Duration = res.Duration
		c.duration = durationPtr(res.Duration)
		c.stopInfoDisplay()
	}

	eventType := EventTrackStarted
	if reason == LoadLoop {
		eventType = EventTrackLooped
	}
	zlog.Debug().Msgf("playback: load completed: id=%s track=%s playable=%s duration=%v",
		res.ID, res.Path, res.Playable, res.Duration)
	c.sendEvent(Event{Type: eventType, Track: c.currentTrack, State: c.state})
}

// Open replaces the current track with path and starts it immediately.
// The queue is left untouched.
func (c *Controller) Open(path string) error {
	if !track.IsRegularFile(path) {
		c.displayInfo("Cannot open " + track.New(path).Name)
		return errors.Mark(errors.Newf("not a regular file: %s", path), ErrOpen)
	}
	return c.startLoad(path, LoadFresh, 0)
}

// Enqueue appends regular files to the queue and returns how many were added.
func (c *Controller) Enqueue(paths ...string) int {
	added := c.queue.Enqueue(paths...)
	zlog.Debug().Msgf("playback: enqueued %d of %d paths, pending=%d", added, len(paths), c.queue.Len())
	return added
}

// EnqueueDir appends the audio files found directly in dir.
func (c *Controller) EnqueueDir(dir string) (int, error) {
	added, err := c.queue.EnqueueDir(dir)
	if err != nil {
		c.displayInfo("Cannot read folder " + dir)
		return 0, err
	}
	if added == 0 {
		c.displayInfo("No audio files in " + dir)
	}
	return added, nil
}

// ClearQueue removes everything pending.
func (c *Controller) ClearQueue() []string {
	return c.queue.Clear()
}

// Skip abandons the current track and loads the next queued one.
// With an empty queue the current track keeps playing.
func (c *Controller) Skip() error {
	if c.queue.IsEmpty() {
		return ErrQueueEmpty
	}
	skipped := c.currentTrack
	if err := c.advance(); err != nil {
		return err
	}
	if skipped != nil {
		c.sendEvent(Event{Type: EventTrackSkipped, Track: skipped, State: c.state})
	}
	return nil
}

// TogglePause pauses a playing sink and resumes it otherwise.
func (c *Controller) TogglePause() {
	if c.state == StatePlaying {
		c.sink.Pause()
		return
	}
	c.sink.Play()
}

// ToggleLoop flips the loop flag and returns the new value.
func (c *Controller) ToggleLoop() bool {
	c.looping = !c.looping
	return c.looping
}

// SetLooping sets the loop flag.
func (c *Controller) SetLooping(enabled bool) {
	c.looping = enabled
}

// AdjustVolume changes the volume by delta, clamped to [0, MaxVolume].
// Returns the resulting volume.
func (c *Controller) AdjustVolume(delta float64) float64 {
	target := ClampVolume(c.volume+delta, c.config.MaxVolume)
	if err := c.pipeline.SetVolume(target); err != nil {
		zlog.Error().Err(err).Msgf("playback: volume not applied: volume=%v", target)
		return c.volume
	}
	c.volume = target
	return c.volume
}

// VolumeUp raises the volume by one step.
func (c *Controller) VolumeUp() float64 {
	return c.AdjustVolume(c.config.VolumeStep)
}

// VolumeDown lowers the volume by one step.
func (c *Controller) VolumeDown() float64 {
	return c.AdjustVolume(-c.config.VolumeStep)
}

// Forward seeks ahead by amount without ever reaching the end of the track.
func (c *Controller) Forward(amount time.Duration) error {
	if c.currentTrack == nil || c.duration == nil {
		return ErrNoTrack
	}
	target, ok := ForwardTarget(c.sink.Position(), *c.duration, amount)
	if !ok {
		return nil
	}
	return c.pipeline.Seek(target)
}

// Rewind rebuilds the decode source for the current track and resumes
// amount earlier, but never before one second in.
func (c *Controller) Rewind(amount time.Duration) error {
	if c.currentTrack == nil {
		return ErrNoTrack
	}
	target := RewindTarget(c.sink.Position(), amount)
	return c.startLoad(c.currentTrack.Path, LoadRewind, target)
}

// SeekForward seeks ahead by the configured step.
func (c *Controller) SeekForward() error {
	return c.Forward(c.config.SeekStep)
}

// SeekBackward rewinds by the configured step.
func (c *Controller) SeekBackward() error {
	return c.Rewind(c.config.SeekStep)
}

// Snapshot returns a copy of the session for rendering.
func (c *Controller) Snapshot() Session {
	s := Session{
		Status:   c.state,
		Position: copyDuration(c.position),
		Duration: copyDuration(c.duration),
		Looping:  c.looping,
		Volume:   c.volume,
		Queue:    c.queue.Items(),
		Info:     make([]string, len(c.info)),
		Loading:  c.pending != nil,
	}
	copy(s.Info, c.info)
	if c.currentTrack != nil {
		t := *c.currentTrack
		s.CurrentTrack = &t
	}
	return s
}

// State returns the current playback state.
func (c *Controller) State() State {
	return c.state
}

// DisplayInfo appends a message to the info log.
func (c *Controller) DisplayInfo(msg string) {
	c.displayInfo(msg)
}

func (c *Controller) displayInfo(msg string) {
	c.info = append(c.info, msg)
}

// stopInfoDisplay appends the "clear" marker.
func (c *Controller) stopInfoDisplay() {
	c.info = append(c.info, "")
}

// Close closes the controller and releases resources.
func (c *Controller) Close() {
	c.cancel()
	close(c.eventCh)
}

// sendEvent sends an event without blocking.
func (c *Controller) sendEvent(e Event) {
	select {
	case <-c.ctx.Done():
		return
	default:
	}
	select {
	case c.eventCh <- e:
		// Successfully sent
	default:
		// Channel full, drop event
	}
}
