package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/osa030/firefly/internal/app/playback"
)

const (
	windowTitle   = "Firefly Player"
	loadingMarker = "Loading…"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("250"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	trackStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // Green
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // Yellow
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray
	loopStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var helpLines = []string{
	"n open • q add files • d add folder • c clear queue",
	"space pause • s skip • l loop • ←/→ seek • ↑/↓ volume • esc quit",
}

// View renders the session.
func (m Model) View() string {
	s := m.ctrl.Snapshot()

	width := max(m.width, 40)
	height := max(m.height, 12)

	title := titleStyle.Width(width).Align(lipgloss.Center).Render(windowTitle)

	// Panels: queue on the left quarter, player over control on the right.
	bodyHeight := height - 1
	queueWidth := width / 4
	mainWidth := width - queueWidth
	playerHeight := bodyHeight * 6 / 10
	controlHeight := bodyHeight - playerHeight

	queue := renderPanel("Queue", queueLines(s.Queue, queueWidth-2), queueWidth, bodyHeight, lipgloss.Left)
	player := renderPanel("Player", playerLines(s, mainWidth-2), mainWidth, playerHeight, lipgloss.Center)
	control := renderPanel("Control", controlLines(s), mainWidth, controlHeight, lipgloss.Left)

	body := lipgloss.JoinHorizontal(lipgloss.Top, queue, lipgloss.JoinVertical(lipgloss.Left, player, control))
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// renderPanel draws a bordered box of the given outer size.
func renderPanel(name string, lines []string, width, height int, align lipgloss.Position) string {
	inner := max(width-2, 1)
	rows := max(height-2, 1)

	content := make([]string, 0, rows)
	content = append(content, headerStyle.Render(truncate(name, inner)))
	for _, l := range lines {
		if len(content) == rows {
			break
		}
		content = append(content, l)
	}

	return panelStyle.
		Width(inner).
		Height(rows).
		Align(align).
		Render(strings.Join(content, "\n"))
}

func queueLines(queue []string, width int) []string {
	lines := make([]string, 0, len(queue))
	for i, p := range queue {
		lines = append(lines, truncate(fmt.Sprintf("%d. %s", i+1, filepath.Base(p)), width))
	}
	return lines
}

func playerLines(s playback.Session, width int) []string {
	name := "[Track Empty]"
	if s.CurrentTrack != nil {
		name = s.CurrentTrack.DisplayName()
	}

	loop := ""
	if s.Looping {
		loop = loopStyle.Render("[Looped]")
	}

	status := statusStyle(s.Status).Render(s.Status.Label())
	if s.Loading {
		status += " " + infoStyle.Render(loadingMarker)
	}

	return []string{
		"",
		trackStyle.Render(truncate(name, width)),
		positionText(s),
		status,
		loop,
		volumeText(s.Volume),
	}
}

func controlLines(s playback.Session) []string {
	lines := []string{infoStyle.Render(s.CurrentInfo()), ""}
	for _, h := range helpLines {
		lines = append(lines, helpStyle.Render(h))
	}
	return lines
}

func statusStyle(state playback.State) lipgloss.Style {
	switch state {
	case playback.StatePlaying:
		return playingStyle
	case playback.StatePaused:
		return pausedStyle
	default:
		return idleStyle
	}
}

// positionText returns "MM:SS", or "MM:SS / MM:SS" when the duration is known.
func positionText(s playback.Session) string {
	var pos time.Duration
	if s.Position != nil {
		pos = *s.Position
	}
	if s.Duration == nil {
		return formatDuration(pos)
	}
	return formatDuration(pos) + " / " + formatDuration(*s.Duration)
}

// volumeText renders the volume as a rounded-up percentage.
func volumeText(volume float64) string {
	// Trim float noise so 1.05 shows as 105, not 106.
	pct := int(math.Ceil(math.Round(volume*1e6)/1e4 - 1e-9))
	return fmt.Sprintf("Volume: %d%%", pct)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
