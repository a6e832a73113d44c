package loader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/firefly/internal/app/playback"
	"github.com/osa030/firefly/internal/domain/track"
	"github.com/osa030/firefly/internal/infra/audio"
)

var testFormat = beep.Format{SampleRate: 1000, NumChannels: 2, Precision: 2}

// journal records collaborator calls in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// fakeStreamer is a silent stream of a fixed number of samples.
type fakeStreamer struct {
	rc  io.Closer
	len int
	pos int
}

func (s *fakeStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.len {
		return 0, false
	}
	n := min(len(samples), s.len-s.pos)
	s.pos += n
	return n, true
}
func (s *fakeStreamer) Err() error    { return nil }
func (s *fakeStreamer) Len() int      { return s.len }
func (s *fakeStreamer) Position() int { return s.pos }
func (s *fakeStreamer) Seek(p int) error {
	s.pos = p
	return nil
}
func (s *fakeStreamer) Close() error { return s.rc.Close() }

type fakeOutput struct {
	journal *journal
	mu      sync.Mutex
	current *audio.Stream
	seeks   []time.Duration
	volumes []float64
	err     error
}

func (o *fakeOutput) Replace(s *audio.Stream) error {
	o.journal.add("replace")
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.current = s
	return nil
}

func (o *fakeOutput) Stop() {
	o.journal.add("stop")
}

func (o *fakeOutput) Seek(pos time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seeks = append(o.seeks, pos)
	return nil
}

func (o *fakeOutput) SetVolume(v float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volumes = append(o.volumes, v)
	return nil
}

func (o *fakeOutput) stream() *audio.Stream {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

type fakeConverter struct {
	journal *journal
	output  string
	err     error
	noWrite bool
	calls   int
}

func (c *fakeConverter) Convert(_ context.Context, src string) (string, error) {
	c.journal.add("convert " + filepath.Base(src))
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if c.noWrite {
		return c.output, nil
	}
	return c.output, os.WriteFile(c.output, []byte("converted"), 0644)
}

type fakeTags struct{}

func (fakeTags) ReadTags(path string) (track.Tags, error) {
	return track.Tags{Title: filepath.Base(path)}, nil
}

type fixture struct {
	engine    *Engine
	journal   *journal
	output    *fakeOutput
	converter *fakeConverter
	samples   int
	decodeErr error
	dir       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	j := &journal{}
	dir := t.TempDir()
	f := &fixture{
		journal:   j,
		output:    &fakeOutput{journal: j},
		converter: &fakeConverter{journal: j, output: filepath.Join(dir, "converted.flac")},
		samples:   testFormat.SampleRate.N(10 * time.Second),
		dir:       dir,
	}
	decoder := DecoderFunc(func(rc io.ReadSeekCloser, ext string) (*audio.Stream, error) {
		j.add("decode " + ext)
		if f.decodeErr != nil {
			return nil, f.decodeErr
		}
		return audio.NewStream(&fakeStreamer{rc: rc, len: f.samples}, testFormat), nil
	})
	f.engine = NewEngine(Config{CommandBuffer: 4}, f.output, decoder, f.converter, fakeTags{})
	f.engine.Start()
	t.Cleanup(f.engine.Close)
	return f
}

func (f *fixture) file(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))
	return path
}

func (f *fixture) await(t *testing.T, id string) playback.LoadResult {
	t.Helper()
	var res playback.LoadResult
	require.Eventually(t, func() bool {
		select {
		case r := <-f.engine.Results():
			if r.ID == id {
				res = r
				return true
			}
		default:
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return res
}

func TestEngine_LoadSupported(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "a.mp3")

	require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path, Reason: playback.LoadFresh}))
	res := f.await(t, "1")

	require.NoError(t, res.Err)
	assert.Equal(t, path, res.Playable)
	assert.Equal(t, 10*time.Second, res.Duration)
	assert.NoError(t, res.DurationErr)
	assert.Equal(t, "a.mp3", res.Tags.Title)
	assert.Equal(t, []string{"decode mp3", "replace"}, f.journal.all())
	assert.Zero(t, f.converter.calls)
}

func TestEngine_ConvertsBeforeDecode(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "a.opus")

	require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path, Reason: playback.LoadFresh}))
	res := f.await(t, "1")

	require.NoError(t, res.Err)
	assert.Equal(t, f.converter.output, res.Playable)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, []string{"stop", "convert a.opus", "decode flac", "replace"}, f.journal.all())
}

func TestEngine_LoopReconverts(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "a.opus")

	require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path, Reason: playback.LoadFresh}))
	f.await(t, "1")
	require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "2", Path: path, Reason: playback.LoadLoop}))
	res := f.await(t, "2")

	require.NoError(t, res.Err)
	assert.Equal(t, 2, f.converter.calls)
}

func TestEngine_RewindReusesPlayable(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "a.opus")

	require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path, Reason: playback.LoadFresh}))
	f.await(t, "1")
	require.NoError(t, f.engine.Load(playback.LoadRequest{
		ID:     "2",
		Path:   path,
		Reason: playback.LoadRewind,
		SeekTo: 4 * time.Second,
	}))
	res := f.await(t, "2")

	require.NoError(t, res.Err)
	assert.Equal(t, 1, f.converter.calls)
	assert.Equal(t, f.converter.output, res.Playable)
	require.NotNil(t, f.output.stream())
	assert.Equal(t, 4*time.Second, f.output.stream().Elapsed())
}

func TestEngine_Failures(t *testing.T) {
	t.Run("conversion", func(t *testing.T) {
		f := newFixture(t)
		f.converter.err = errors.New("exit status 1")
		path := f.file(t, "a.wma")

		require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path}))
		res := f.await(t, "1")

		assert.True(t, errors.Is(res.Err, playback.ErrConversion))
		assert.NotContains(t, f.journal.all(), "replace")
		assert.NotContains(t, f.journal.all(), "decode flac")
	})

	t.Run("open", func(t *testing.T) {
		f := newFixture(t)
		f.converter.noWrite = true
		path := f.file(t, "a.aac")

		require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path}))
		res := f.await(t, "1")

		assert.True(t, errors.Is(res.Err, playback.ErrOpen))
		assert.False(t, errors.Is(res.Err, playback.ErrConversion))
	})

	t.Run("decode", func(t *testing.T) {
		f := newFixture(t)
		f.decodeErr = errors.New("bad header")
		path := f.file(t, "a.flac")

		require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path}))
		res := f.await(t, "1")

		assert.True(t, errors.Is(res.Err, playback.ErrDecode))
		assert.Nil(t, f.output.stream())
	})

	t.Run("unknown duration still plays", func(t *testing.T) {
		f := newFixture(t)
		f.samples = 0
		path := f.file(t, "a.ogg")

		require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path}))
		res := f.await(t, "1")

		require.NoError(t, res.Err)
		assert.True(t, errors.Is(res.DurationErr, playback.ErrProbe))
		assert.NotNil(t, f.output.stream())
	})

	t.Run("sink rejects stream", func(t *testing.T) {
		f := newFixture(t)
		f.output.err = errors.New("device gone")
		path := f.file(t, "a.wav")

		require.NoError(t, f.engine.Load(playback.LoadRequest{ID: "1", Path: path}))
		res := f.await(t, "1")

		assert.Error(t, res.Err)
	})
}

func TestEngine_SeekAndVolume(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Seek(15*time.Second))
	require.NoError(t, f.engine.SetVolume(1.25))

	require.Eventually(t, func() bool {
		f.output.mu.Lock()
		defer f.output.mu.Unlock()
		return len(f.output.seeks) == 1 && len(f.output.volumes) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 15*time.Second, f.output.seeks[0])
	assert.Equal(t, 1.25, f.output.volumes[0])
}

func TestEngine_Closed(t *testing.T) {
	f := newFixture(t)
	f.engine.Close()

	err := f.engine.Load(playback.LoadRequest{ID: "1", Path: "a.mp3"})
	assert.Error(t, err)

	_, ok := <-f.engine.Results()
	assert.False(t, ok)
}

// Engine satisfies the controller's pipeline contract.
var _ playback.Pipeline = (*Engine)(nil)
