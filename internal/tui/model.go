// Package tui renders the player state and translates key presses into
// coordinator intents.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slumberfm/slumber/internal/app/notify"
	"github.com/slumberfm/slumber/internal/app/player"
	"github.com/slumberfm/slumber/internal/domain/track"
	"github.com/slumberfm/slumber/internal/infra/catalog"
)

const (
	paneLibrary = iota
	paneQueue

	refreshInterval = 250 * time.Millisecond
	statusDuration  = 5 * time.Second
	volumeStep      = 0.1
)

type tickMsg time.Time
type promptMsg notify.Prompt

// Model is the bubbletea model for the player.
type Model struct {
	coord   *player.Coordinator
	library []track.Track
	prompts notify.ChanStream

	progress progress.Model

	width, height int
	pane          int
	libCursor     int
	queueCursor   int

	status      string
	statusUntil time.Time
}

// New creates the TUI model. The prompt channel must already be subscribed
// to the notify manager.
func New(coord *player.Coordinator, lib *catalog.Library, prompts notify.ChanStream) Model {
	return Model{
		coord:    coord,
		library:  lib.Tracks(),
		prompts:  prompts,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init starts the refresh tick and the prompt listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitPrompt())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitPrompt() tea.Cmd {
	return func() tea.Msg { return promptMsg(<-m.prompts) }
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = clampInt(m.width-24, 10, 60)
		return m, nil

	case tickMsg:
		return m, tick()

	case promptMsg:
		m.setStatus(msg.Reason)
		return m, m.waitPrompt()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.coord.State()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.pane == paneLibrary {
			m.pane = paneQueue
		} else {
			m.pane = paneLibrary
		}
	case "up", "k":
		m.moveCursor(-1, len(st.Queue))
	case "down", "j":
		m.moveCursor(1, len(st.Queue))
	case "enter":
		if m.pane == paneLibrary {
			if t, ok := m.selectedLibrary(); ok {
				m.report(m.coord.PlayTrack(t))
			}
		} else if len(st.Queue) > 0 {
			m.report(m.coord.PlayQueueIndex(m.queueCursor))
		}
	case "a":
		if t, ok := m.selectedLibrary(); ok {
			m.report(m.coord.AddToQueue(t))
		}
	case "N":
		if t, ok := m.selectedLibrary(); ok {
			m.report(m.coord.PlayNextInQueue(t))
		}
	case " ":
		m.report(m.coord.TogglePlayPause())
	case "n":
		m.report(m.coord.Next())
	case "p":
		m.report(m.coord.Previous())
	case "l":
		m.report(m.coord.ToggleLoopMode())
	case "s":
		m.coord.ToggleShuffle()
	case "r":
		m.report(m.coord.ResumePausedQueue())
	case "c":
		m.coord.ClearQueue()
		m.queueCursor = 0
	case "x":
		if m.pane == paneQueue && len(st.Queue) > 0 {
			m.report(m.coord.RemoveFromQueue(m.queueCursor))
			if m.queueCursor > 0 {
				m.queueCursor--
			}
		}
	case "+", "=":
		m.coord.SetVolume(st.Volume + volumeStep)
	case "-":
		m.coord.SetVolume(st.Volume - volumeStep)
	}
	return m, nil
}

func (m *Model) moveCursor(delta, queueLen int) {
	if m.pane == paneLibrary {
		m.libCursor = clampInt(m.libCursor+delta, 0, len(m.library)-1)
	} else {
		m.queueCursor = clampInt(m.queueCursor+delta, 0, queueLen-1)
	}
}

func (m Model) selectedLibrary() (track.Track, bool) {
	if m.libCursor < 0 || m.libCursor >= len(m.library) {
		return track.Track{}, false
	}
	return m.library[m.libCursor], true
}

func (m *Model) report(err error) {
	if err != nil {
		m.setStatus(err.Error())
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusUntil = time.Now().Add(statusDuration)
}

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	st := m.coord.State()

	half := (m.width - 6) / 2
	listHeight := clampInt(m.height-14, 3, 30)

	sections := []string{
		titleStyle.Render("slumber"),
		m.renderNowPlaying(st),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderLibrary(half, listHeight),
			m.renderQueue(st, half, listHeight),
		),
	}
	if m.status != "" && time.Now().Before(m.statusUntil) {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, helpStyle.Render(
		"space play/pause · n/p skip · l loop · s shuffle · r resume queue · a add · N play next · x remove · c clear · +/- volume · q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderNowPlaying(st player.PlaybackState) string {
	var body string
	if st.Track == nil {
		body = subtleStyle.Render("Nothing playing")
	} else {
		mode := ""
		switch {
		case st.SingleTrackMode && st.HasPausedQueue:
			mode = badgeStyle.Render(" [queue paused]")
		case st.SingleTrackMode:
			mode = badgeStyle.Render(" [single track]")
		case len(st.Queue) > 0:
			mode = badgeStyle.Render(" [queue]")
		}
		icon := "▶"
		if !st.IsPlaying || st.State != player.StatePlaying {
			icon = "⏸"
		}
		var pct float64
		if st.Duration > 0 {
			pct = st.Position / st.Duration
		}
		bar := fmt.Sprintf("%s %s %s",
			formatSeconds(st.Position), m.progress.ViewAs(pct), formatSeconds(st.Duration))
		flags := fmt.Sprintf("loop:%s", st.LoopMode)
		if st.Shuffled {
			flags += " · shuffled"
		}
		flags += fmt.Sprintf(" · vol:%d%%", int(st.Volume*100+0.5))

		body = lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s%s", icon, titleStyle.Render(st.Track.Title), mode),
			subtleStyle.Render(st.Track.Description),
			bar,
			subtleStyle.Render(flags),
		)
	}
	return panelStyle.Width(m.width - 4).Render(body)
}

func (m Model) renderLibrary(width, height int) string {
	lines := []string{titleStyle.Render("Library")}
	start, end := window(m.libCursor, len(m.library), height)
	for i := start; i < end; i++ {
		t := m.library[i]
		line := t.Title
		if t.IsPremium {
			line += badgeStyle.Render(" ♦")
		}
		if i == m.libCursor && m.pane == paneLibrary {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	style := panelStyle
	if m.pane == paneLibrary {
		style = focusedPanelStyle
	}
	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderQueue(st player.PlaybackState, width, height int) string {
	header := fmt.Sprintf("Queue (%d)", len(st.Queue))
	lines := []string{titleStyle.Render(header)}
	if len(st.Queue) == 0 {
		lines = append(lines, subtleStyle.Render("empty"))
	}
	start, end := window(m.queueCursor, len(st.Queue), height)
	for i := start; i < end; i++ {
		t := st.Queue[i]
		line := t.Title
		if i == st.QueueIndex && !st.SingleTrackMode {
			line = "♪ " + line
		} else {
			line = "  " + line
		}
		if i == m.queueCursor && m.pane == paneQueue {
			line = cursorStyle.Render(">" + line)
		} else {
			line = " " + line
		}
		lines = append(lines, line)
	}
	style := panelStyle
	if m.pane == paneQueue {
		style = focusedPanelStyle
	}
	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func window(cursor, length, height int) (int, int) {
	if length <= height {
		return 0, length
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > length {
		start = length - height
	}
	return start, start + height
}

func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	total := int(s)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
