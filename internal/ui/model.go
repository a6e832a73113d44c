// Package ui provides the terminal interface of the player.
package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/firefly/internal/app/playback"
)

// Picker opens file selection dialogs.
type Picker interface {
	PickOne(ctx context.Context) (string, bool, error)
	PickMany(ctx context.Context) ([]string, error)
	PickFolder(ctx context.Context) (string, bool, error)
}

type tickMsg time.Time

type eventMsg playback.Event

type pickedOneMsg struct{ path string }

type pickedManyMsg struct{ paths []string }

type pickedFolderMsg struct{ dir string }

type pickFailedMsg struct{ err error }

// pickCancelledMsg is sent when a dialog closes without a selection.
type pickCancelledMsg struct{}

// Model is the bubbletea model driving the playback controller.
// Every controller call happens inside Update, on the program goroutine.
type Model struct {
	ctrl         *playback.Controller
	picker       Picker
	ctx          context.Context
	pollInterval time.Duration

	width   int
	height  int
	picking bool // a dialog is open
}

// New creates the UI model.
func New(ctx context.Context, ctrl *playback.Controller, picker Picker, pollInterval time.Duration) Model {
	if pollInterval <= 0 {
		pollInterval = 16 * time.Millisecond
	}
	return Model{
		ctrl:         ctrl,
		picker:       picker,
		ctx:          ctx,
		pollInterval: pollInterval,
		width:        80,
		height:       24,
	}
}

// Init starts the tick loop and the event watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), waitForEvent(m.ctrl.Events()), tea.SetWindowTitle(windowTitle))
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan playback.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.ctrl.Tick()
		return m, m.tickCmd()

	case eventMsg:
		return m, tea.Batch(m.handleEvent(playback.Event(msg)), waitForEvent(m.ctrl.Events()))

	case pickedOneMsg:
		m.picking = false
		if err := m.ctrl.Open(msg.path); err != nil {
			zlog.Error().Err(err).Msgf("ui: failed to open %s", msg.path)
		}

	case pickedManyMsg:
		m.picking = false
		added := m.ctrl.Enqueue(msg.paths...)
		zlog.Info().Msgf("ui: enqueued %d track(s)", added)

	case pickedFolderMsg:
		m.picking = false
		if _, err := m.ctrl.EnqueueDir(msg.dir); err != nil {
			zlog.Error().Err(err).Msgf("ui: failed to enqueue folder %s", msg.dir)
		}

	case pickFailedMsg:
		m.picking = false
		zlog.Error().Err(msg.err).Msg("ui: file picker failed")
		m.ctrl.DisplayInfo("File picker unavailable")

	case pickCancelledMsg:
		m.picking = false
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit

	case "n":
		return m.pick(m.pickOne)

	case "q":
		return m.pick(m.pickMany)

	case "d":
		return m.pick(m.pickFolder)

	case " ":
		m.ctrl.TogglePause()

	case "s":
		if err := m.ctrl.Skip(); err != nil && !errors.Is(err, playback.ErrQueueEmpty) {
			zlog.Error().Err(err).Msg("ui: skip failed")
		}

	case "up":
		m.ctrl.VolumeUp()

	case "down":
		m.ctrl.VolumeDown()

	case "right":
		if err := m.ctrl.SeekForward(); err != nil && !errors.Is(err, playback.ErrNoTrack) {
			zlog.Error().Err(err).Msg("ui: seek forward failed")
		}

	case "left":
		if err := m.ctrl.SeekBackward(); err != nil && !errors.Is(err, playback.ErrNoTrack) {
			zlog.Error().Err(err).Msg("ui: seek backward failed")
		}

	case "l":
		m.ctrl.ToggleLoop()

	case "c":
		m.ctrl.ClearQueue()
	}

	return m, nil
}

func (m Model) handleEvent(e playback.Event) tea.Cmd {
	zlog.Debug().Msgf("ui: playback event: type=%s state=%s", e.Type, e.State)

	switch e.Type {
	case playback.EventTrackStarted:
		if e.Track != nil {
			return tea.SetWindowTitle(windowTitle + " - " + e.Track.DisplayName())
		}
	case playback.EventLoadFailed, playback.EventQueueEmpty:
		return tea.SetWindowTitle(windowTitle)
	}
	return nil
}

// pick opens a dialog unless one is already open.
func (m Model) pick(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.picker == nil || m.picking {
		return m, nil
	}
	m.picking = true
	return m, cmd
}

func (m Model) pickOne() tea.Msg {
	path, ok, err := m.picker.PickOne(m.ctx)
	switch {
	case err != nil:
		return pickFailedMsg{err: err}
	case !ok:
		return pickCancelledMsg{}
	default:
		return pickedOneMsg{path: path}
	}
}

func (m Model) pickMany() tea.Msg {
	paths, err := m.picker.PickMany(m.ctx)
	switch {
	case err != nil:
		return pickFailedMsg{err: err}
	case len(paths) == 0:
		return pickCancelledMsg{}
	default:
		return pickedManyMsg{paths: paths}
	}
}

func (m Model) pickFolder() tea.Msg {
	dir, ok, err := m.picker.PickFolder(m.ctx)
	switch {
	case err != nil:
		return pickFailedMsg{err: err}
	case !ok:
		return pickCancelledMsg{}
	default:
		return pickedFolderMsg{dir: dir}
	}
}
